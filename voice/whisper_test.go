package voice

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechbox/voice/transcoding"
)

func whisperServer(t *testing.T, text string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"`+text+`"}`)
	}))
}

func whisperRecord(t *testing.T) *transcoding.Record {
	path := filepath.Join(t.TempDir(), "speech.wav")
	require.NoError(t, transcoding.WriteWAV(path, []int{1, 2, 3}, transcoding.SampleRate, transcoding.Channels))
	record, err := transcoding.LoadWAV(path)
	require.NoError(t, err)
	return record
}

func TestWhisper(t *testing.T) {
	srv := whisperServer(t, " turn the lights off ")
	defer srv.Close()

	api := NewWhisper("sk-test", srv.URL+"/v1", "en", time.Second)
	text, err := api.SpeechToText(context.Background(), whisperRecord(t))
	require.NoError(t, err)
	assert.Equal(t, "turn the lights off", text)
}

func TestWhisperNothingHeard(t *testing.T) {
	srv := whisperServer(t, "")
	defer srv.Close()

	api := NewWhisper("sk-test", srv.URL+"/v1", "en", time.Second)
	_, err := api.SpeechToText(context.Background(), whisperRecord(t))
	assert.ErrorIs(t, err, ErrUnknownValue)
}
