package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/eights/internal/middleware"
	"github.com/jason-s-yu/eights/internal/protocol"
	"github.com/jason-s-yu/eights/internal/transport"
	"github.com/sirupsen/logrus"
)

// Server admits connections to a single table.
type Server struct {
	table *Table
	log   logrus.FieldLogger
}

func New(table *Table, log logrus.FieldLogger) *Server {
	return &Server{table: table, log: log}
}

func (s *Server) Table() *Table {
	return s.table
}

// AttachLocal seats the host's own player over an in-process pipe and returns the client end.
func (s *Server) AttachLocal(ctx context.Context) (transport.LineConn, error) {
	hostEnd, clientEnd := net.Pipe()
	peer, err := s.table.Join(ctx, transport.NewStreamConn(hostEnd), true)
	if err != nil {
		hostEnd.Close()
		clientEnd.Close()
		return nil, err
	}
	go s.table.ReadLoop(ctx, peer)
	return transport.NewStreamConn(clientEnd), nil
}

// ServeTCP accepts up to remote connections from ln, then stops listening. It also returns
// when ctx is cancelled or the table closes.
func (s *Server) ServeTCP(ctx context.Context, ln net.Listener, remote int) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.table.Done():
		case <-stop:
		}
		ln.Close()
	}()

	s.log.Infof("waiting for %d players on %s", remote, ln.Addr())
	for accepted := 0; accepted < remote; {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		conn := transport.NewStreamConn(c)
		if s.admit(ctx, conn, true) {
			accepted++
		}
	}
	s.log.Info("all seats filled; no longer accepting connections")
	return nil
}

// WSHandler seats websocket clients; each request runs that client's receive loop.
func (s *Server) WSHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.AcceptWS(w, r)
		if err != nil {
			s.log.Warnf("websocket accept from %s: %v", r.RemoteAddr, err)
			return
		}
		s.admit(r.Context(), conn, false)
	})
}

// ServeWS serves WSHandler at /ws, and a liveness probe at /ping, on addr until ctx is cancelled or the table closes.
func (s *Server) ServeWS(ctx context.Context, addr string) error {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(middleware.LogMiddleware(s.log))
	r.Handle("/ws", s.WSHandler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-s.table.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Infof("websocket endpoint listening on %s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// admit joins conn to the table and runs its receive loop, in the background when async.
// A refused connection is told to shut down.
func (s *Server) admit(ctx context.Context, conn transport.LineConn, async bool) bool {
	peer, err := s.table.Join(ctx, conn, false)
	if err != nil {
		s.log.Infof("refusing %s: %v", conn.RemoteAddr(), err)
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		_ = conn.WriteLine(writeCtx, protocol.Shutdown().Encode())
		cancel()
		conn.Close()
		return false
	}
	if async {
		go s.table.ReadLoop(ctx, peer)
	} else {
		s.table.ReadLoop(ctx, peer)
	}
	return true
}
