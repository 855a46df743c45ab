package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/haguro/elevenlabs-go"
)

const (
	elevenLabsEnglishModel      = "eleven_monolingual_v1"
	elevenLabsMultilingualModel = "eleven_multilingual_v2"
)

type ElevenLabs struct {
	ApiKey  string
	VoiceID string
	Timeout time.Duration
}

var _ TTS = &ElevenLabs{}

func (api *ElevenLabs) TextToSpeech(ctx context.Context, text string, language string) ([]byte, error) {
	client := elevenlabs.NewClient(ctx, api.ApiKey, api.Timeout)

	// the english model sounds better but only speaks english
	model := elevenLabsEnglishModel
	if language != "en" {
		model = elevenLabsMultilingualModel
	}

	ttsReq := elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: model,
	}
	audio, err := client.TextToSpeech(api.VoiceID, ttsReq)
	if err != nil {
		return nil, fmt.Errorf("failed tts; %w", err)
	}

	return audio, nil
}
