package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arl/statsviz"
	"github.com/sirupsen/logrus"
)

// Handler returns a mux serving the runtime dashboard under /debug/statsviz/.
func Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

// Serve runs the dashboard on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, log logrus.FieldLogger) error {
	h, err := Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("runtime metrics at http://%s/debug/statsviz/", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
