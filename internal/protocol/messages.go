package protocol

import (
	"fmt"
	"strconv"
)

// ButtonMode tells the presentation layer which controls to enable.
type ButtonMode string

const (
	ButtonsPlay ButtonMode = "PLAY" // your turn: play or draw
	ButtonsSuit ButtonMode = "SUIT" // choose a suit for your EIGHT
	ButtonsWait ButtonMode = "WAIT" // someone else is acting
	ButtonsIdle ButtonMode = "IDLE" // between rounds or after the game
)

func Name(name string) Message {
	return New(TagName, Sanitize(name))
}

// Chat is a client's chat request; the text may contain field separators.
func Chat(text string) Message {
	return New(TagChat, SanitizeChat(text))
}

// ChatFrom is the host's rebroadcast of a chat line.
func ChatFrom(name, text string) Message {
	return New(TagChat, Sanitize(name), SanitizeChat(text))
}

func Play(seat int, card string) Message {
	return New(TagPlay, strconv.Itoa(seat), card)
}

func Draw(seat int) Message {
	return New(TagDraw, strconv.Itoa(seat))
}

func SuitChoice(seat int, suit, card string) Message {
	return New(TagSuitChoice, strconv.Itoa(seat), suit, card)
}

func Disconnect(seat int) Message {
	return New(TagDisconnect, strconv.Itoa(seat))
}

func ID(seat int) Message {
	return New(TagID, strconv.Itoa(seat))
}

// Console is a structured notice; actor and card may be empty.
func Console(actor, msg, card string) Message {
	return New(TagConsole, Sanitize(actor), Sanitize(msg), card)
}

func RoundOver(winner string) Message {
	return New(TagRoundOver, Sanitize(winner))
}

func GameOver(winners ...string) Message {
	fields := make([]string, len(winners))
	for i, w := range winners {
		fields[i] = Sanitize(w)
	}
	return New(TagGameOver, fields...)
}

func SuitRequest(seat int, card string) Message {
	return New(TagSuitRequest, strconv.Itoa(seat), card)
}

func Btn(mode ButtonMode) Message {
	return New(TagBtn, string(mode))
}

func Cleanup() Message {
	return New(TagCleanup)
}

func Shutdown() Message {
	return New(TagShutdown)
}

// Seat parses field 0 as a seat id, as carried by PLAY, DRAW, SUITCHOICE, DISCONNECT, ID and SUITREQUEST.
func (m Message) Seat() (int, error) {
	seat, err := strconv.Atoi(m.Field(0))
	if err != nil || seat < 0 {
		return 0, fmt.Errorf("%w: seat %q", ErrBadField, m.Field(0))
	}
	return seat, nil
}
