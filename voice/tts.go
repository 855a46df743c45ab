package voice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type TTS interface {
	// TextToSpeech converts text to speech and returns the
	// whole generated audio as MP3 bytes
	TextToSpeech(ctx context.Context, text string, language string) ([]byte, error)
}

// Synthesis runs the text -> speech pipeline. Limiter and Cache are optional.
type Synthesis struct {
	Speaker  TTS
	Language string
	Timeout  time.Duration // per synthesis call
	Limiter  *rate.Limiter
	Cache    *SpeechCache
}

// Speak returns MP3 audio for text in the configured language.
// Empty or whitespace-only text is rejected with ErrEmptyText.
func (s *Synthesis) Speak(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if s.Cache != nil {
		if audio, ok := s.Cache.Get(s.Language, text); ok {
			logrus.WithField("chars", len(text)).Debugln("speech cache hit")
			return audio, nil
		}
	}

	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("synthesis rate limited; %w", err)
		}
	}

	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	audio, err := s.Speaker.TextToSpeech(sctx, text, s.Language)
	if err != nil {
		return nil, upstreamError(ctx, "synthesis", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("synthesis returned no audio")
	}

	if s.Cache != nil {
		s.Cache.Set(s.Language, text, audio)
	}

	return audio, nil
}

// NewLimiter builds a limiter for rps upstream calls per second.
// rps <= 0 means unlimited.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// --- utilities for this package

func hashString(input string) string {
	hash := sha256.New()
	hash.Write([]byte(input))
	return hex.EncodeToString(hash.Sum(nil))
}
