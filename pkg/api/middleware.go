package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

// requestLogger logs incoming HTTP requests and records request metrics.
func (s *server) requestLogger(next http.Handler) http.Handler {
	m := metricsSingleton()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		elapsed := time.Since(start)

		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.log.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", status).
			WithField("remote", r.RemoteAddr).
			WithField("duration", elapsed).
			Debug("Request handled")
	})
}

// requireBasicAuth checks HTTP basic credentials against the configured
// users. It is a no-op when basic auth is disabled.
func (s *server) requireBasicAuth(next http.Handler) http.Handler {
	if !s.cfg.Auth.Basic.Enabled {
		return next
	}

	hashes := make(map[string][]byte, len(s.cfg.Auth.Basic.Users))
	for _, u := range s.cfg.Auth.Basic.Users {
		hashes[u.Username] = []byte(u.PasswordHash)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			unauthorized(w, "authentication required")

			return
		}

		hash, known := hashes[username]
		if !known || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
			s.log.WithField("username", username).
				WithField("remote", r.RemoteAddr).
				Warn("Rejected basic auth credentials")

			unauthorized(w, "invalid credentials")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="txreports", charset="UTF-8"`)
	writeJSON(w, http.StatusUnauthorized, errorResponse{msg})
}
