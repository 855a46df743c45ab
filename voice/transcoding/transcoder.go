package transcoding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConversionFailed = errors.New("conversion failed")
)

// ConversionError is returned when the external converter
// could not be started or exited non-zero.
type ConversionError struct {
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s (exit %d)", ErrConversionFailed, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil {
		msg += "; " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversionFailed
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Converter transcodes the audio at input into a PCM WAV at output
type Converter interface {
	Convert(ctx context.Context, input string, output string) error
}

// FFmpeg converts anything ffmpeg can read into mono 16 kHz s16le WAV.
// Conversions run through Pool when one is set.
type FFmpeg struct {
	Path string
	Pool *Pool
}

var _ Converter = &FFmpeg{}

func (f *FFmpeg) Convert(ctx context.Context, input string, output string) error {
	if f.Pool == nil {
		return f.run(ctx, input, output)
	}
	return f.Pool.Do(ctx, func(ctx context.Context) error {
		return f.run(ctx, input, output)
	})
}

func (f *FFmpeg) run(ctx context.Context, input string, output string) error {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}

	run := exec.CommandContext(ctx,
		bin,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", input,
		"-vn", // only audio is processed
		"-ac", strconv.Itoa(Channels),
		"-ar", strconv.Itoa(SampleRate),
		"-acodec", "pcm_s16le",
		output)

	var stderr bytes.Buffer
	run.Stderr = &stderr
	// don't hang on grandchildren holding stderr open after a kill
	run.WaitDelay = time.Second

	err := run.Run()
	if err == nil {
		return nil
	}

	// a cancelled request is not the converter's fault
	if ctx.Err() != nil {
		return fmt.Errorf("ffmpeg interrupted; %w", ctx.Err())
	}

	convErr := &ConversionError{
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		convErr.ExitCode = exitErr.ExitCode()
	} else {
		convErr.Err = err
	}
	return convErr
}
