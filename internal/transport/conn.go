// Package transport carries protocol lines between the host and its clients over
// plain TCP streams or websocket text frames.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/coder/websocket"
)

var ErrEmbeddedNewline = errors.New("line contains a line break")

// LineConn is one bidirectional line stream. WriteLine is safe for concurrent use;
// ReadLine belongs to the connection's single receive loop.
type LineConn interface {
	ReadLine(ctx context.Context) (string, error)
	WriteLine(ctx context.Context, line string) error
	Close() error
	RemoteAddr() string
}

// IsClosed reports whether err is an orderly end of stream rather than a fault.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

func checkLine(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return ErrEmbeddedNewline
	}
	return nil
}
