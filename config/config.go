package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const envPrefix = "SPEECHBOX_"

var (
	ErrInvalidConfig = errors.New("invalid config")
)

type Config struct {
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// scratch space for uploads & converted audio
	TempDir        string `yaml:"temp_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	FFmpegPath     string `yaml:"ffmpeg_path"`
	ConvertWorkers int    `yaml:"convert_workers"`

	Recognizer       string        `yaml:"recognizer"` // google | whisper
	RecognizeTimeout time.Duration `yaml:"recognize_timeout"`
	GoogleSpeechURL  string        `yaml:"google_speech_url"`
	GoogleSpeechKey  string        `yaml:"google_speech_key"`
	OpenAIKey        string        `yaml:"openai_key"`

	Synthesizer       string        `yaml:"synthesizer"` // google | elevenlabs
	SynthesizeTimeout time.Duration `yaml:"synthesize_timeout"`
	Language          string        `yaml:"language"`
	ElevenLabsKey     string        `yaml:"elevenlabs_key"`
	ElevenLabsVoice   string        `yaml:"elevenlabs_voice"`
	SynthesisRPS      float64       `yaml:"synthesis_rps"`
	SynthesisCacheTTL time.Duration `yaml:"synthesis_cache_ttl"`

	RequestsPerMinute int      `yaml:"requests_per_minute"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
}

func Default() Config {
	return Config{
		Addr:      ":8000",
		LogLevel:  "info",
		LogFormat: "text",

		TempDir:        os.TempDir(),
		MaxUploadBytes: 25 << 20,

		FFmpegPath:     "ffmpeg",
		ConvertWorkers: 4,

		Recognizer:       "google",
		RecognizeTimeout: 30 * time.Second,
		GoogleSpeechURL:  "http://www.google.com/speech-api/v2/recognize",

		Synthesizer:       "google",
		SynthesizeTimeout: 30 * time.Second,
		Language:          "en",
		ElevenLabsVoice:   "BreKkXSwy4hr1vgm7ZqX",

		RequestsPerMinute: 120,
		AllowedOrigins:    []string{"*"},
	}
}

// Load builds the config from defaults, an optional yaml file
// (SPEECHBOX_CONFIG) and finally the environment. A .env file in
// the working directory is loaded first if it exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warnln("failed to load .env")
	}

	cfg := Default()

	if file, exists := os.LookupEnv(envPrefix + "CONFIG"); exists {
		if err := cfg.LoadFile(file); err != nil {
			return cfg, err
		}
	}

	if err := cfg.LoadEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) LoadFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file; %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file; %w", err)
	}

	return nil
}

func (c *Config) LoadEnv() error {
	lookupString("ADDR", &c.Addr)
	lookupString("LOG_LEVEL", &c.LogLevel)
	lookupString("LOG_FORMAT", &c.LogFormat)
	lookupString("TEMP_DIR", &c.TempDir)
	lookupString("FFMPEG_PATH", &c.FFmpegPath)
	lookupString("RECOGNIZER", &c.Recognizer)
	lookupString("GOOGLE_SPEECH_URL", &c.GoogleSpeechURL)
	lookupString("GOOGLE_SPEECH_KEY", &c.GoogleSpeechKey)
	lookupString("OPENAI_KEY", &c.OpenAIKey)
	lookupString("SYNTHESIZER", &c.Synthesizer)
	lookupString("LANGUAGE", &c.Language)
	lookupString("ELEVENLABS_KEY", &c.ElevenLabsKey)
	lookupString("ELEVENLABS_VOICE", &c.ElevenLabsVoice)

	if origins, exists := os.LookupEnv(envPrefix + "ALLOWED_ORIGINS"); exists {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	ints := map[string]*int{
		"CONVERT_WORKERS":     &c.ConvertWorkers,
		"REQUESTS_PER_MINUTE": &c.RequestsPerMinute,
	}
	for name, dst := range ints {
		if err := lookupInt(name, dst); err != nil {
			return err
		}
	}

	if raw, exists := os.LookupEnv(envPrefix + "MAX_UPLOAD_BYTES"); exists {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_UPLOAD_BYTES; %v", ErrInvalidConfig, envPrefix, err)
		}
		c.MaxUploadBytes = v
	}

	if raw, exists := os.LookupEnv(envPrefix + "SYNTHESIS_RPS"); exists {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSYNTHESIS_RPS; %v", ErrInvalidConfig, envPrefix, err)
		}
		c.SynthesisRPS = v
	}

	durations := map[string]*time.Duration{
		"RECOGNIZE_TIMEOUT":   &c.RecognizeTimeout,
		"SYNTHESIZE_TIMEOUT":  &c.SynthesizeTimeout,
		"SYNTHESIS_CACHE_TTL": &c.SynthesisCacheTTL,
	}
	for name, dst := range durations {
		if err := lookupDuration(name, dst); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.Recognizer {
	case "google":
		if c.GoogleSpeechKey == "" {
			return fmt.Errorf("%w: google recognizer requires %sGOOGLE_SPEECH_KEY", ErrInvalidConfig, envPrefix)
		}
	case "whisper":
		if c.OpenAIKey == "" {
			return fmt.Errorf("%w: whisper recognizer requires %sOPENAI_KEY", ErrInvalidConfig, envPrefix)
		}
	default:
		return fmt.Errorf("%w: unknown recognizer %q", ErrInvalidConfig, c.Recognizer)
	}

	switch c.Synthesizer {
	case "google":
	case "elevenlabs":
		if c.ElevenLabsKey == "" {
			return fmt.Errorf("%w: elevenlabs synthesizer requires %sELEVENLABS_KEY", ErrInvalidConfig, envPrefix)
		}
	default:
		return fmt.Errorf("%w: unknown synthesizer %q", ErrInvalidConfig, c.Synthesizer)
	}

	if c.RecognizeTimeout <= 0 || c.SynthesizeTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	if c.ConvertWorkers <= 0 {
		return fmt.Errorf("%w: convert_workers must be positive", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.SynthesisRPS < 0 || c.SynthesisCacheTTL < 0 || c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: rates and ttls cannot be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidConfig)
	}

	return nil
}

// SetupLogging applies the level & format to the global logrus logger
func (c *Config) SetupLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: log_level; %v", ErrInvalidConfig, err)
	}
	logrus.SetLevel(level)

	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	return nil
}

func lookupString(name string, dst *string) {
	if v, exists := os.LookupEnv(envPrefix + name); exists {
		*dst = v
	}
}

func lookupInt(name string, dst *int) error {
	raw, exists := os.LookupEnv(envPrefix + name)
	if !exists {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s%s; %v", ErrInvalidConfig, envPrefix, name, err)
	}
	*dst = v
	return nil
}

func lookupDuration(name string, dst *time.Duration) error {
	raw, exists := os.LookupEnv(envPrefix + name)
	if !exists {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %s%s; %v", ErrInvalidConfig, envPrefix, name, err)
	}
	*dst = v
	return nil
}
