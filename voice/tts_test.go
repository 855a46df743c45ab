package voice

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechbox/storage"
)

var mp3 = []byte{0xff, 0xfb, 0x90, 0x64, 0x00}

func TestSpeak(t *testing.T) {
	speaker := &fakeSpeaker{audio: mp3}
	s := &Synthesis{Speaker: speaker, Language: "en", Timeout: time.Second}

	audio, err := s.Speak(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, mp3, audio)

	// no cache - every call goes upstream
	_, err = s.Speak(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, int32(2), speaker.calls.Load())
}

func TestSpeakEmptyText(t *testing.T) {
	speaker := &fakeSpeaker{audio: mp3}
	s := &Synthesis{Speaker: speaker, Language: "en"}

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Speak(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Equal(t, int32(0), speaker.calls.Load())
}

func TestSpeakFailure(t *testing.T) {
	s := &Synthesis{Speaker: &fakeSpeaker{err: errors.New("503 service unavailable")}, Language: "en"}

	_, err := s.Speak(context.Background(), "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstreamTimeout)
}

func TestSpeakNoAudio(t *testing.T) {
	s := &Synthesis{Speaker: &fakeSpeaker{}, Language: "en"}

	_, err := s.Speak(context.Background(), "hello")
	assert.Error(t, err)
}

func TestSpeakTimeout(t *testing.T) {
	s := &Synthesis{Speaker: &fakeSpeaker{block: true}, Language: "en", Timeout: 20 * time.Millisecond}

	_, err := s.Speak(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestSpeakCache(t *testing.T) {
	cache := NewSpeechCache(time.Minute, 10)
	defer cache.Stop()

	speaker := &fakeSpeaker{audio: mp3}
	s := &Synthesis{Speaker: speaker, Language: "en", Cache: cache}

	for i := 0; i < 3; i++ {
		audio, err := s.Speak(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, mp3, audio)
	}
	assert.Equal(t, int32(1), speaker.calls.Load())
	assert.Equal(t, 1, cache.Len())

	// failures are not cached
	s.Speaker = &fakeSpeaker{err: errors.New("boom")}
	_, err := s.Speak(context.Background(), "something else")
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestSpeechCacheExpiry(t *testing.T) {
	cache := NewSpeechCache(20*time.Millisecond, 0)
	defer cache.Stop()

	cache.Set("en", "hi", mp3)
	_, ok := cache.Get("en", "hi")
	assert.True(t, ok)
	_, ok = cache.Get("fr", "hi")
	assert.False(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok = cache.Get("en", "hi")
	assert.False(t, ok)
}

func TestSpeakLimiter(t *testing.T) {
	speaker := &fakeSpeaker{audio: mp3}
	s := &Synthesis{Speaker: speaker, Language: "en", Limiter: NewLimiter(1)}

	_, err := s.Speak(context.Background(), "first")
	require.NoError(t, err)

	// the single token is spent so the next call cannot finish in time
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.Speak(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, int32(1), speaker.calls.Load())
}

func TestUnlimitedLimiter(t *testing.T) {
	limiter := NewLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow())
	}
}

func TestSplitText(t *testing.T) {
	assert.Empty(t, splitText("   ", 10))
	assert.Equal(t, []string{"hello world"}, splitText(" hello   world ", 100))
	assert.Equal(t, []string{"aaa bbb", "ccc"}, splitText("aaa bbb ccc", 7))
	assert.Equal(t, []string{"abcde", "fgh", "ij"}, splitText("abcdefgh ij", 5))
	assert.Equal(t, []string{"ééé", "ééé"}, splitText("éééééé", 3))
}

// --- live services, only when explicitly enabled

func TestGoogleLive(t *testing.T) {
	if os.Getenv("SPEECHBOX_LIVE_TESTS") == "" {
		t.Skip("SPEECHBOX_LIVE_TESTS not set")
	}
	scratch, err := storage.NewScratch(t.TempDir())
	require.NoError(t, err)

	testSpeaker(t, &Google{Scratch: scratch})
	assert.Equal(t, 0, scratch.Live())
}

func TestElevenLabsLive(t *testing.T) {
	key := os.Getenv("ELEVENLABS_APIKEY")
	if key == "" {
		t.Skip("ELEVENLABS_APIKEY not set")
	}
	testSpeaker(t, &ElevenLabs{
		ApiKey:  key,
		VoiceID: "BreKkXSwy4hr1vgm7ZqX",
		Timeout: 30 * time.Second,
	})
}

func testSpeaker(t *testing.T, speaker TTS) {
	audio, err := speaker.TextToSpeech(context.Background(), "Wh-what? How can you say something so serious? B-baka!", "en")
	assert.NoError(t, err)
	assert.NotEmpty(t, audio)
}
