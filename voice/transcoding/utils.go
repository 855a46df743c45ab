package transcoding

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
)

func pcmDuration(buf *audio.IntBuffer) time.Duration {
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 {
		return 0
	}

	seconds := float64(buf.NumFrames()) / float64(buf.Format.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// Suffix picks a temp file suffix from an uploaded filename so
// ffmpeg can guess the container. Browsers record webm by default.
func Suffix(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 || strings.ContainsAny(ext, `/\ `) {
		return ".webm"
	}
	return ext
}
