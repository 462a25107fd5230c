// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using Logrus.
// Logs the method, path, and duration of each request.
func LogMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path
			method := r.Method

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   method,
				"path":     path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogConnect logs a seat's connection once it has been accepted and seated.
func LogConnect(logger logrus.FieldLogger, remoteAddr string, seat int) {
	logger.WithFields(logrus.Fields{
		"remote": remoteAddr,
		"seat":   seat,
	}).Info("Player connected")
}

// LogDisconnect logs a seat's connection ending. err is nil for an orderly close.
func LogDisconnect(logger logrus.FieldLogger, remoteAddr string, seat int, err error) {
	fields := logrus.Fields{
		"remote": remoteAddr,
		"seat":   seat,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("Player disconnected")
}
