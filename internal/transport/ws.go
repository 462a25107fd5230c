package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// Subprotocol is required of every websocket client.
const Subprotocol = "eights"

const wsWriteTimeout = 3 * time.Second

type wsConn struct {
	c      *websocket.Conn
	remote string
}

// NewWSConn frames a websocket as one text frame per line.
func NewWSConn(c *websocket.Conn, remote string) LineConn {
	return &wsConn{c: c, remote: remote}
}

// AcceptWS upgrades an HTTP request, rejecting clients that do not speak Subprotocol.
func AcceptWS(w http.ResponseWriter, r *http.Request) (LineConn, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, err
	}
	if c.Subprotocol() != Subprotocol {
		c.Close(websocket.StatusPolicyViolation, "client must use the '"+Subprotocol+"' subprotocol")
		return nil, fmt.Errorf("client %s offered subprotocol %q", r.RemoteAddr, c.Subprotocol())
	}
	return NewWSConn(c, r.RemoteAddr), nil
}

// DialWS connects to a host's websocket endpoint, e.g. ws://host:8080/ws.
func DialWS(ctx context.Context, url string) (LineConn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, err
	}
	return NewWSConn(c, url), nil
}

// ReadLine returns the next text frame. Binary frames are dropped and the connection stays open.
func (w *wsConn) ReadLine(ctx context.Context) (string, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return "", err
		}
		if typ == websocket.MessageText {
			return string(data), nil
		}
		logrus.WithField("remote", w.remote).Warnf("dropping %d-byte binary frame", len(data))
	}
}

func (w *wsConn) WriteLine(ctx context.Context, line string) error {
	if err := checkLine(line); err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return w.c.Write(writeCtx, websocket.MessageText, []byte(line))
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}

func (w *wsConn) RemoteAddr() string {
	return w.remote
}
