package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-Id"

type ctxKey struct{}

// requestID tags every request with an id (reusing the caller's if sent)
// and a logrus entry carrying it
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		log := logrus.WithField("request_id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, log)))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		entry(r).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", ww.Status()).
			WithField("bytes", ww.BytesWritten()).
			WithField("elapsed", time.Since(start)).
			WithField("remote", r.RemoteAddr).
			Infoln("request")
	})
}

func entry(r *http.Request) *logrus.Entry {
	if log, ok := r.Context().Value(ctxKey{}).(*logrus.Entry); ok {
		return log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
