package transcoding

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	SampleRate int = 16000 // what speech recognizers expect
	Channels   int = 1
	BitDepth   int = 16
)

var (
	ErrInvalidWAV = fmt.Errorf("invalid wav output; %w", ErrConversionFailed)
)

// Record is a converted waveform loaded fully into memory
type Record struct {
	Path     string
	Buffer   *audio.IntBuffer
	Duration time.Duration
}

func (r *Record) SampleRate() int {
	return r.Buffer.Format.SampleRate
}

// read a WAV file into a single in-memory record
func LoadWAV(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav; %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read pcm; %v", ErrInvalidWAV, err)
	}

	return &Record{
		Path:     path,
		Buffer:   buf,
		Duration: pcmDuration(buf),
	}, nil
}
