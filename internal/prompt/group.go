package prompt

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
)

// LineGroup is the classification of one prompt line.
type LineGroup string

const (
	GroupNone     LineGroup = ""
	GroupPositive LineGroup = "positive"
	GroupNegative LineGroup = "negative"
	GroupExtra    LineGroup = "extra"
)

var (
	positiveMarkerRe = regexp.MustCompile(`(?i)^\s*positive prompt[:：]?\s*(.*)$`)
	negativeMarkerRe = regexp.MustCompile(`(?i)^\s*negative prompt[:：]?\s*(.*)$`)
)

// GuessLineGroup classifies line. For marker lines the text after the
// marker is returned, otherwise line itself. Unlike a plain "every item is
// key:value" check, a line made only of "tag:1.2" items stays prompt text.
func GuessLineGroup(line string) (LineGroup, string) {
	if m := positiveMarkerRe.FindStringSubmatch(line); m != nil {
		return GroupPositive, strings.TrimSpace(m[1])
	}
	if m := negativeMarkerRe.FindStringSubmatch(line); m != nil {
		return GroupNegative, strings.TrimSpace(m[1])
	}
	if isExtraLine(line) {
		return GroupExtra, line
	}
	return GroupNone, line
}

// isExtraLine reports whether every comma item of line looks like
// "key: value" metadata. A line made only of "tag:1.2" items is a list of
// weighted tags, not metadata.
func isExtraLine(line string) bool {
	items := lo.Filter(splitOutsideQuotes(line, ','), func(item string, _ int) bool {
		return strings.TrimSpace(item) != ""
	})
	if len(items) == 0 {
		return false
	}

	onlyWeights := true
	for _, item := range items {
		if countOutsideQuotes(item, ':') != 1 {
			return false
		}
		i := indexOutsideQuotes(item, ':')
		key := strings.TrimSpace(item[:i])
		if key == "" || strings.ContainsAny(key, wrapperChars) {
			return false
		}
		if !isWeightSuffix(item[i+1:]) {
			onlyWeights = false
		}
	}
	return !onlyWeights
}

func isWeightSuffix(s string) bool {
	if s != strings.TrimLeft(s, " \t") {
		return false
	}
	_, ok := parseWeight(s)
	return ok
}

// Sections is the raw result of section grouping.
type Sections struct {
	Positive []string
	Negative []string
	Extra    string
}

type sectionState int

const (
	statePositive sectionState = iota
	stateMaybeNegative
	stateNegative
	stateExtra
)

func (s sectionState) String() string {
	switch s {
	case statePositive:
		return "positive"
	case stateMaybeNegative:
		return "maybe_negative"
	case stateNegative:
		return "negative"
	case stateExtra:
		return "extra"
	default:
		return "unknown"
	}
}

type lineEvent int

const (
	eventContent lineEvent = iota
	eventBlank
	eventBlankRun
	eventPositiveMarker
	eventNegativeMarker
	eventExtraLine
)

type sectionAction uint8

const (
	actionClearPositive sectionAction = 1 << iota
	actionClearTentative
	actionPromoteTentative
)

type sectionTransition struct {
	next   sectionState
	action sectionAction
}

// sectionTransitions lists every state change; a missing entry keeps the
// current state.
var sectionTransitions = map[sectionState]map[lineEvent]sectionTransition{
	statePositive: {
		eventPositiveMarker: {next: statePositive, action: actionClearPositive},
		eventNegativeMarker: {next: stateNegative},
		eventBlank:          {next: stateMaybeNegative},
		eventBlankRun:       {next: stateMaybeNegative},
		eventExtraLine:      {next: stateExtra},
	},
	stateMaybeNegative: {
		eventPositiveMarker: {next: statePositive, action: actionClearPositive | actionClearTentative},
		eventNegativeMarker: {next: stateNegative, action: actionPromoteTentative},
		eventBlankRun:       {next: stateNegative, action: actionPromoteTentative},
		eventExtraLine:      {next: stateExtra},
	},
	stateNegative: {
		eventExtraLine: {next: stateExtra},
	},
	stateExtra: {},
}

// sectionMachine assigns lines to sections. While in maybe_negative the
// negative buffer is tentative: a confirmed break moves it back to positive.
type sectionMachine struct {
	state    sectionState
	blankRun int
	positive []string
	negative []string
	extra    []string
}

func newSectionMachine() *sectionMachine {
	return &sectionMachine{state: statePositive}
}

func (m *sectionMachine) feed(raw string) {
	event, content := m.classify(strings.TrimSpace(raw))
	isBlank := event == eventBlank || event == eventBlankRun
	if isBlank && m.state == statePositive && len(m.positive) == 0 {
		// blank lines before any positive content do not end the section
		return
	}
	m.apply(event)
	if isBlank || content == "" {
		return
	}
	switch m.state {
	case statePositive:
		m.positive = append(m.positive, content)
	case stateMaybeNegative, stateNegative:
		m.negative = append(m.negative, content)
	case stateExtra:
		m.extra = append(m.extra, content)
	}
}

func (m *sectionMachine) classify(line string) (lineEvent, string) {
	if line == "" {
		m.blankRun++
		if m.blankRun >= 2 {
			return eventBlankRun, ""
		}
		return eventBlank, ""
	}
	m.blankRun = 0

	group, content := GuessLineGroup(line)
	switch group {
	case GroupPositive:
		return eventPositiveMarker, content
	case GroupNegative:
		return eventNegativeMarker, content
	case GroupExtra:
		return eventExtraLine, content
	default:
		return eventContent, content
	}
}

func (m *sectionMachine) apply(event lineEvent) {
	t, ok := sectionTransitions[m.state][event]
	if !ok {
		return
	}
	if t.action&actionClearPositive != 0 {
		m.positive = nil
	}
	if t.action&actionPromoteTentative != 0 {
		m.positive = append(m.positive, m.negative...)
		m.negative = nil
	}
	if t.action&actionClearTentative != 0 {
		m.negative = nil
	}
	if t.next != m.state {
		debuglog.Debug(debuglog.Trace, "prompt section %s -> %s\n", m.state, t.next)
	}
	m.state = t.next
}

func (m *sectionMachine) sections() Sections {
	return Sections{
		Positive: m.positive,
		Negative: m.negative,
		Extra:    strings.Join(m.extra, "\n"),
	}
}

// GroupPrompts splits raw prompt text into positive lines, negative lines
// and the extra metadata text.
func GroupPrompts(text string) Sections {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
	m := newSectionMachine()
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		m.feed(line)
	}
	return m.sections()
}
