package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	htgotts "github.com/hegedustibor/htgo-tts"
	"github.com/sirupsen/logrus"

	"speechbox/storage"
)

const (
	// google translate tts refuses long lines, so text is sent in pieces
	maxChunkLen = 100
	// size of the placeholder mp3 google returns instead of an error
	badMP3Size = 1685
)

var (
	ErrNotMP3 = errors.New("tts output is not mp3")
)

// createSpeechFile downloads one line of speech into dir/name.mp3
var createSpeechFile = func(dir string, language string, text string, name string) (string, error) {
	speech := htgotts.Speech{Folder: dir, Language: language}
	return speech.CreateSpeechFile(text, name)
}

// Google speaks through the google translate tts endpoint (htgotts)
type Google struct {
	Scratch *storage.Scratch
}

var _ TTS = &Google{}

func (api *Google) TextToSpeech(ctx context.Context, text string, language string) ([]byte, error) {
	dir, err := api.Scratch.Mkdir()
	if err != nil {
		return nil, err
	}

	type result struct {
		audio []byte
		err   error
	}
	done := make(chan result, 1)

	// htgotts takes no context so it runs on its own goroutine
	go func() {
		audio, err := speakChunks(ctx, dir, splitText(text, maxChunkLen), language)
		done <- result{audio, err}
	}()

	select {
	case res := <-done:
		api.Scratch.Remove(dir)
		return res.audio, res.err
	case <-ctx.Done():
		go func() {
			<-done
			api.Scratch.Remove(dir)
		}()
		return nil, ctx.Err()
	}
}

// generate one mp3 per chunk and concatenate them
func speakChunks(ctx context.Context, dir string, chunks []string, language string) ([]byte, error) {
	var audio bytes.Buffer
	for i, chunk := range chunks {
		// stop paying for lines nobody is waiting on
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := createSpeechFile(dir, language, chunk, strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("failed tts; %w", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read tts output; %w", err)
		}
		if len(data) == badMP3Size {
			logrus.WithField("line", chunk).Infoln("htgotts returned bad MP3file")
			return nil, errors.New("failed to gen speech - google rejected line")
		}
		// htgotts saves whatever google answered, error pages included
		if !isMP3(data) {
			logrus.WithField("line", chunk).WithField("size", len(data)).Warnln("htgotts returned non-mp3 data")
			return nil, fmt.Errorf("%w: chunk %d", ErrNotMP3, i)
		}

		audio.Write(data)
	}

	return audio.Bytes(), nil
}

// isMP3 accepts an ID3 tag or an MPEG audio frame sync
func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// splitText breaks text into chunks of at most max runes, on word
// boundaries where possible
func splitText(text string, max int) []string {
	chunks := []string{}
	current := ""

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, word := range strings.Fields(text) {
		// words that don't fit anywhere get cut up
		for utf8.RuneCountInString(word) > max {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:max]))
			word = string(runes[max:])
		}

		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= max:
			current += " " + word
		default:
			flush()
			current = word
		}
	}
	flush()

	return chunks
}
