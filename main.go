package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"speechbox/config"
	"speechbox/server"
	"speechbox/storage"
	"speechbox/voice"
	"speechbox/voice/transcoding"
)

func newInterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatalln("failed to load config")
	}
	if err := cfg.SetupLogging(); err != nil {
		logrus.WithError(err).Fatalln("failed to setup logging")
	}

	ctx, cancel := newInterruptContext(context.Background())
	defer cancel()

	scratch, err := storage.NewScratch(cfg.TempDir)
	if err != nil {
		logrus.WithError(err).Fatalln("failed to prepare scratch space")
	}
	// anything left behind by interrupted requests
	defer scratch.Cleanup()

	transcriber := &voice.Transcriber{
		Scratch: scratch,
		Converter: &transcoding.FFmpeg{
			Path: cfg.FFmpegPath,
			Pool: transcoding.NewPool(cfg.ConvertWorkers),
		},
		Recognizer: newRecognizer(cfg),
		Timeout:    cfg.RecognizeTimeout,
	}

	synthesis := &voice.Synthesis{
		Speaker:  newSpeaker(cfg, scratch),
		Language: cfg.Language,
		Timeout:  cfg.SynthesizeTimeout,
		Limiter:  voice.NewLimiter(cfg.SynthesisRPS),
	}
	if cfg.SynthesisCacheTTL > 0 {
		synthesis.Cache = voice.NewSpeechCache(cfg.SynthesisCacheTTL, 1024)
		defer synthesis.Cache.Stop()
	}

	logrus.WithFields(logrus.Fields{
		"recognizer":      cfg.Recognizer,
		"synthesizer":     cfg.Synthesizer,
		"language":        cfg.Language,
		"convert_workers": cfg.ConvertWorkers,
		"temp_dir":        scratch.Dir(),
	}).Infoln("speechbox configuration")

	srv := server.New(transcriber, synthesis, server.Options{
		MaxUploadBytes:    cfg.MaxUploadBytes,
		RequestsPerMinute: cfg.RequestsPerMinute,
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	if err := server.Run(ctx, cfg.Addr, srv.Handler()); err != nil {
		logrus.WithError(err).Errorln("server exited")
	}
}

func newRecognizer(cfg config.Config) voice.STT {
	switch cfg.Recognizer {
	case "whisper":
		return voice.NewWhisper(cfg.OpenAIKey, "", cfg.Language, cfg.RecognizeTimeout)
	default:
		return &voice.GoogleSpeech{
			URL:      cfg.GoogleSpeechURL,
			Key:      cfg.GoogleSpeechKey,
			Language: cfg.Language,
			Client:   &http.Client{Timeout: cfg.RecognizeTimeout},
		}
	}
}

func newSpeaker(cfg config.Config, scratch *storage.Scratch) voice.TTS {
	switch cfg.Synthesizer {
	case "elevenlabs":
		return &voice.ElevenLabs{
			ApiKey:  cfg.ElevenLabsKey,
			VoiceID: cfg.ElevenLabsVoice,
			Timeout: cfg.SynthesizeTimeout,
		}
	default:
		return &voice.Google{Scratch: scratch}
	}
}
