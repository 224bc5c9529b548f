// Package input loads prompt text from the places a prompt usually lives:
// literal text, files, the clipboard, stdin and the metadata of generated
// PNG images.
package input

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tagprompt/tagprompt/internal/i18n"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
	"github.com/tagprompt/tagprompt/internal/util"
)

// ErrNoInput is returned by Load when no source holds any input.
var ErrNoInput = errors.New("no prompt input")

// Source describes where the prompt comes from. The first set field wins in
// the order Text, Path, Clipboard, Stdin.
type Source struct {
	Text      string
	Path      string
	Clipboard bool
	Stdin     io.Reader
}

// clipboardRead is replaced in tests.
var clipboardRead = clipboard.ReadAll

// Load returns the prompt text held by src.
func Load(src Source) (ret string, err error) {
	switch {
	case src.Text != "":
		ret = src.Text
	case src.Path != "":
		ret, err = LoadFile(src.Path)
	case src.Clipboard:
		if ret, err = clipboardRead(); err != nil {
			err = errors.Wrap(err, i18n.T("input_error_read_clipboard"))
		}
	case src.Stdin != nil:
		var data []byte
		if data, err = io.ReadAll(src.Stdin); err != nil {
			err = errors.Wrap(err, i18n.T("input_error_read_stdin"))
			return
		}
		ret, err = Decode(data)
	default:
		err = errors.Wrap(ErrNoInput, i18n.T("input_error_no_source"))
	}
	return
}

// LoadFile reads path, after resolving ~ and symlinks, and decodes it with
// Decode.
func LoadFile(path string) (string, error) {
	absPath, err := util.GetAbsolutePath(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", errors.Wrapf(err, "%s %s", i18n.T("input_error_read_file"), path)
	}
	text, err := Decode(data)
	if err != nil {
		return "", errors.WithMessage(err, path)
	}
	return text, nil
}

// Decode sniffs the type of data. Text is returned with any byte order mark
// removed and UTF-16 converted to UTF-8; PNG images yield their embedded
// generation parameters.
func Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	mtype := mimetype.Detect(data)
	debuglog.Debug(debuglog.Detailed, "input detected as %s (%d bytes)\n", mtype.String(), len(data))

	switch {
	case isText(mtype):
		return decodeText(data)
	case mtype.Is("image/png"):
		return ReadPNGParameters(data)
	default:
		return "", errors.Errorf("%s %s", i18n.T("input_error_unsupported_type"), mtype.String())
	}
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func decodeText(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(decoded), nil
}
