package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"speechbox/storage"
	"speechbox/voice/transcoding"
)

type STT interface {
	// SpeechToText sends the record to a recognition service. It returns
	// ErrUnknownValue when the service could not make sense of the audio.
	SpeechToText(ctx context.Context, record *transcoding.Record) (string, error)
}

// Transcriber runs the upload -> convert -> load -> recognize pipeline
type Transcriber struct {
	Scratch    *storage.Scratch
	Converter  transcoding.Converter
	Recognizer STT
	Timeout    time.Duration // per recognition call
}

// Transcribe returns the transcript of the uploaded audio. Audio the
// recognizer could not understand yields an empty transcript, not an error.
// Every temp file is removed before returning.
func (t *Transcriber) Transcribe(ctx context.Context, upload io.Reader, suffix string) (string, error) {
	input, err := t.Scratch.Write(upload, suffix)
	if err != nil {
		return "", fmt.Errorf("failed to store upload; %w", err)
	}
	defer t.Scratch.Remove(input)

	output := t.Scratch.Reserve(input + ".wav")
	defer t.Scratch.Remove(output)

	if err := t.Converter.Convert(ctx, input, output); err != nil {
		return "", fmt.Errorf("failed to convert upload; %w", err)
	}

	record, err := transcoding.LoadWAV(output)
	if err != nil {
		return "", fmt.Errorf("failed to load converted audio; %w", err)
	}

	rctx, cancel := withTimeout(ctx, t.Timeout)
	defer cancel()

	text, err := t.Recognizer.SpeechToText(rctx, record)
	if errors.Is(err, ErrUnknownValue) {
		logrus.
			WithField("duration", record.Duration).
			Debugln("recognizer could not understand audio")
		return "", nil
	}
	if err != nil {
		return "", upstreamError(ctx, "recognition", err)
	}

	logrus.
		WithField("duration", record.Duration).
		WithField("chars", len(text)).
		Debugln("transcribed")

	return text, nil
}
