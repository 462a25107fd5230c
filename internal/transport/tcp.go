package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

type streamConn struct {
	conn net.Conn
	r    *bufio.Reader

	mu sync.Mutex
	w  *bufio.Writer
}

// NewStreamConn frames a net.Conn (TCP or an in-process pipe) as newline-terminated lines.
func NewStreamConn(c net.Conn) LineConn {
	return &streamConn{
		conn: c,
		r:    bufio.NewReader(c),
		w:    bufio.NewWriter(c),
	}
}

// DialTCP connects to a host listening at addr.
func DialTCP(ctx context.Context, addr string) (LineConn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewStreamConn(c), nil
}

func (s *streamConn) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(dl)
		defer s.conn.SetReadDeadline(time.Time{})
	}
	line, err := s.r.ReadString('\n')
	if err != nil {
		// a final unterminated line still counts
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *streamConn) WriteLine(ctx context.Context, line string) error {
	if err := checkLine(line); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *streamConn) Close() error {
	return s.conn.Close()
}

func (s *streamConn) RemoteAddr() string {
	if a := s.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return "local"
}
