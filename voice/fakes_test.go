package voice

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"speechbox/voice/transcoding"
)

// fakeConverter "transcodes" an upload holding a number into a WAV
// whose samples all carry that number. Anything else fails like ffmpeg would.
type fakeConverter struct{}

func (fakeConverter) Convert(ctx context.Context, input string, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return &transcoding.ConversionError{ExitCode: 1, Stderr: "Invalid data found when processing input"}
	}

	samples := make([]int, 160)
	for i := range samples {
		samples[i] = n
	}
	return transcoding.WriteWAV(output, samples, transcoding.SampleRate, transcoding.Channels)
}

// fakeRecognizer reads back the number; 0 is "could not understand"
type fakeRecognizer struct {
	err   error
	block bool
}

func (f fakeRecognizer) SpeechToText(ctx context.Context, record *transcoding.Record) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if record.Buffer.Data[0] == 0 {
		return "", ErrUnknownValue
	}
	return "number " + strconv.Itoa(record.Buffer.Data[0]), nil
}

type fakeSpeaker struct {
	calls atomic.Int32
	audio []byte
	err   error
	block bool
}

func (f *fakeSpeaker) TextToSpeech(ctx context.Context, text string, language string) ([]byte, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}
