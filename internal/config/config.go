// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Audio struct {
		Source     string `yaml:"source"` // audiosocket or file
		SampleRate int    `yaml:"sample_rate"`
		ChunkSize  int    `yaml:"chunk_size"`
		Record     bool   `yaml:"record"`

		AudioSocket struct {
			Listen    string `yaml:"listen"`
			InputRate int    `yaml:"input_rate"`
		} `yaml:"audiosocket"`

		File struct {
			Path     string `yaml:"path"`
			Realtime bool   `yaml:"realtime"`
		} `yaml:"file"`
	} `yaml:"audio"`

	STT struct {
		Provider      string  `yaml:"provider"` // vosk, whisper or assemblyai
		WindowSeconds float64 `yaml:"window_seconds"`
		Language      string  `yaml:"language"`

		Vosk struct {
			ServerURL string `yaml:"server_url"`
		} `yaml:"vosk"`

		Whisper struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
			Model   string `yaml:"model"`
		} `yaml:"whisper"`

		AssemblyAI struct {
			URL    string `yaml:"url"`
			APIKey string `yaml:"api_key"`
		} `yaml:"assemblyai"`
	} `yaml:"stt"`

	Summary struct {
		Provider       string `yaml:"provider"` // llm or extractive
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		Model          string `yaml:"model"`
		MaxTokens      int    `yaml:"max_tokens"`
		MaxSentences   int    `yaml:"max_sentences"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"summary"`

	Results struct {
		Dir string `yaml:"dir"`
	} `yaml:"results"`

	Observers struct {
		Console    bool `yaml:"console"`
		SessionLog bool `yaml:"session_log"`

		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
			Channel  string `yaml:"channel"`
		} `yaml:"redis"`

		WebSocket struct {
			Enabled bool   `yaml:"enabled"`
			Listen  string `yaml:"listen"`
			Path    string `yaml:"path"`
		} `yaml:"websocket"`
	} `yaml:"observers"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}

	c.Audio.Source = "audiosocket"
	c.Audio.SampleRate = 16000
	c.Audio.ChunkSize = 1024
	c.Audio.AudioSocket.Listen = "0.0.0.0:9092"
	c.Audio.AudioSocket.InputRate = 8000
	c.Audio.File.Realtime = true

	c.STT.Provider = "vosk"
	c.STT.WindowSeconds = 5.0
	c.STT.Language = "en"
	c.STT.Vosk.ServerURL = "ws://localhost:2700"
	c.STT.Whisper.Model = "whisper-1"

	c.Summary.Provider = "extractive"
	c.Summary.MaxTokens = 300
	c.Summary.MaxSentences = 3
	c.Summary.TimeoutSeconds = 120

	c.Results.Dir = "results"

	c.Observers.Console = true
	c.Observers.Redis.Addr = "localhost:6379"
	c.Observers.Redis.Prefix = "meeting:"
	c.Observers.Redis.Channel = "meeting-segments"
	c.Observers.WebSocket.Listen = "127.0.0.1:8089"
	c.Observers.WebSocket.Path = "/ws"

	c.Logging.Level = "info"

	return c
}

// Load reads filename over the defaults. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	config := Default()

	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Audio.Source {
	case "audiosocket":
		if c.Audio.AudioSocket.Listen == "" {
			errs = append(errs, errors.New("audio.audiosocket.listen is required"))
		}
		if in := c.Audio.AudioSocket.InputRate; in != c.Audio.SampleRate && in*2 != c.Audio.SampleRate {
			errs = append(errs, fmt.Errorf("audio.audiosocket.input_rate %d must equal or be half of sample_rate %d", in, c.Audio.SampleRate))
		}
	case "file":
		if c.Audio.File.Path == "" {
			errs = append(errs, errors.New("audio.file.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown audio.source %q", c.Audio.Source))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, errors.New("audio.sample_rate must be positive"))
	}
	if c.Audio.ChunkSize <= 0 {
		errs = append(errs, errors.New("audio.chunk_size must be positive"))
	}

	switch c.STT.Provider {
	case "vosk":
		if c.STT.Vosk.ServerURL == "" {
			errs = append(errs, errors.New("stt.vosk.server_url is required"))
		}
	case "whisper", "assemblyai":
	default:
		errs = append(errs, fmt.Errorf("unknown stt.provider %q", c.STT.Provider))
	}
	if c.STT.WindowSeconds <= 0 {
		errs = append(errs, errors.New("stt.window_seconds must be positive"))
	}

	switch c.Summary.Provider {
	case "llm":
		if c.Summary.BaseURL == "" {
			errs = append(errs, errors.New("summary.base_url is required for llm"))
		}
	case "extractive":
	default:
		errs = append(errs, fmt.Errorf("unknown summary.provider %q", c.Summary.Provider))
	}

	if c.Results.Dir == "" {
		errs = append(errs, errors.New("results.dir is required"))
	}
	if c.Observers.Redis.Enabled && c.Observers.Redis.Addr == "" {
		errs = append(errs, errors.New("observers.redis.addr is required"))
	}
	if c.Observers.WebSocket.Enabled && c.Observers.WebSocket.Listen == "" {
		errs = append(errs, errors.New("observers.websocket.listen is required"))
	}

	return errors.Join(errs...)
}

// SummaryTimeout bounds summarization after recording stops.
func (c *Config) SummaryTimeout() time.Duration {
	if c.Summary.TimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Summary.TimeoutSeconds) * time.Second
}
