// Package protocol implements the table's line-oriented wire format: one message per
// newline-terminated line, fields separated by '|', the first field naming the message.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

const (
	FieldSep = "|"
	ListSep  = ","
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrUnknownTag   = errors.New("unknown message tag")
	ErrFieldCount   = errors.New("wrong field count")
	ErrBadField     = errors.New("malformed field")
)

// Tag names a message kind.
type Tag string

// Client to host.
const (
	TagName       Tag = "NAME"
	TagChat       Tag = "CHAT" // also host to client
	TagPlay       Tag = "PLAY"
	TagDraw       Tag = "DRAW"
	TagSuitChoice Tag = "SUITCHOICE"
	TagDisconnect Tag = "DISCONNECT"
)

// Host to client.
const (
	TagID          Tag = "ID"
	TagConsole     Tag = "CONSOLE"
	TagRefresh     Tag = "REFRESH"
	TagRoundOver   Tag = "ROUNDOVER"
	TagGameOver    Tag = "GAMEOVER"
	TagSuitRequest Tag = "SUITREQUEST"
	TagBtn         Tag = "BTN"
	TagCleanup     Tag = "CLEANUP"
	TagShutdown    Tag = "SHUTDOWN"
)

// arity bounds the number of fields after the tag; max < 0 means unbounded.
type arity struct{ min, max int }

var arities = map[Tag]arity{
	TagName:        {1, -1},
	TagChat:        {1, -1},
	TagPlay:        {2, 2},
	TagDraw:        {1, 1},
	TagSuitChoice:  {3, 3},
	TagDisconnect:  {1, 1},
	TagID:          {1, 1},
	TagConsole:     {3, 3},
	TagRefresh:     {RefreshFields, RefreshFields},
	TagRoundOver:   {1, 1},
	TagGameOver:    {1, -1},
	TagSuitRequest: {2, 2},
	TagBtn:         {1, 1},
	TagCleanup:     {0, 0},
	TagShutdown:    {0, 0},
}

// Message is one decoded line.
type Message struct {
	Tag    Tag
	Fields []string
}

func New(tag Tag, fields ...string) Message {
	return Message{Tag: tag, Fields: fields}
}

// Encode renders the message without its trailing newline.
func (m Message) Encode() string {
	if len(m.Fields) == 0 {
		return string(m.Tag)
	}
	return string(m.Tag) + FieldSep + strings.Join(m.Fields, FieldSep)
}

func (m Message) String() string {
	return m.Encode()
}

// Field returns field i, or "" when absent.
func (m Message) Field(i int) string {
	if i < 0 || i >= len(m.Fields) {
		return ""
	}
	return m.Fields[i]
}

// Rest rejoins fields from i onward, restoring separators that were part of free text.
func (m Message) Rest(i int) string {
	if i >= len(m.Fields) {
		return ""
	}
	return strings.Join(m.Fields[i:], FieldSep)
}

// Parse decodes one line. Unknown tags and wrong field counts are errors; the caller drops the message.
func Parse(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Message{}, ErrEmptyMessage
	}
	parts := strings.Split(line, FieldSep)
	m := Message{Tag: Tag(parts[0]), Fields: parts[1:]}
	a, ok := arities[m.Tag]
	if !ok {
		return m, fmt.Errorf("%w: %q", ErrUnknownTag, parts[0])
	}
	if n := len(m.Fields); n < a.min || (a.max >= 0 && n > a.max) {
		return m, fmt.Errorf("%w: %s has %d", ErrFieldCount, m.Tag, n)
	}
	return m, nil
}

// Sanitize strips characters that would break framing or list fields out of free text.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '|', ',', '\n', '\r':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// SanitizeChat keeps field separators (they are reassembled on receipt) but drops line breaks.
func SanitizeChat(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
}
