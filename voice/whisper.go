package voice

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"speechbox/voice/transcoding"
)

// Whisper recognizes speech with the openai transcription api
type Whisper struct {
	Client   *openai.Client
	Language string
}

var _ STT = &Whisper{}

// NewWhisper builds an openai client. baseURL may be empty for the public api.
func NewWhisper(apiKey string, baseURL string, language string, timeout time.Duration) *Whisper {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &Whisper{
		Client:   openai.NewClientWithConfig(config),
		Language: language,
	}
}

func (api *Whisper) SpeechToText(ctx context.Context, record *transcoding.Record) (string, error) {
	resp, err := api.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: record.Path,
		Language: api.Language,
	})
	if err != nil {
		return "", fmt.Errorf("failed whisper transcription; %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnknownValue
	}
	return text, nil
}
