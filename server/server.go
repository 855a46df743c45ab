package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Transcriber turns an uploaded audio blob into text
type Transcriber interface {
	Transcribe(ctx context.Context, upload io.Reader, suffix string) (string, error)
}

// Speaker turns text into mp3 audio
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type Options struct {
	MaxUploadBytes    int64
	RequestsPerMinute int // 0 disables rate limiting
	AllowedOrigins    []string
}

type Server struct {
	stt     Transcriber
	speaker Speaker
	opts    Options
}

func New(stt Transcriber, speaker Speaker, opts Options) *Server {
	return &Server{
		stt:     stt,
		speaker: speaker,
		opts:    opts,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RealIP,
		requestID,
		accessLog,
		middleware.Recoverer,
	)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)

	r.Group(func(pr chi.Router) {
		if s.opts.RequestsPerMinute > 0 {
			pr.Use(httprate.LimitByIP(s.opts.RequestsPerMinute, time.Minute))
		}
		pr.Post("/stt", s.handleSTT)
		pr.Post("/speak", s.handleSpeak)
	})

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logrus.WithField("addr", addr).Infoln("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http listen and serve; %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server; %w", err)
		}
		logrus.Infoln("server stopped")
		return nil
	})

	return group.Wait()
}
