package log

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level controls how much debug output is written.
type Level int

const (
	Off Level = iota
	Basic
	Detailed
	Trace
	Wire
)

var (
	mu     sync.RWMutex
	level  = Off
	output io.Writer = os.Stderr
)

// LevelFromInt clamps i into the known range of levels.
func LevelFromInt(i int) Level {
	switch {
	case i <= 0:
		return Off
	case i >= int(Wire):
		return Wire
	default:
		return Level(i)
	}
}

func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Basic:
		return "basic"
	case Detailed:
		return "detailed"
	case Trace:
		return "trace"
	case Wire:
		return "wire"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// SetLevel sets the global debug level.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// GetLevel returns the current debug level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput redirects debug output. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	if w == nil {
		w = os.Stderr
	}
	output = w
	mu.Unlock()
}

// Debug writes the message when the current level is at least l.
func Debug(l Level, format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	if l == Off || level < l {
		return
	}
	fmt.Fprintf(output, "DEBUG: "+format, a...)
}

// Log writes the message regardless of the debug level.
func Log(format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, format, a...)
}
