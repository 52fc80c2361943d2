package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Audio.SampleRate != 16000 || c.Audio.ChunkSize != 1024 {
		t.Errorf("unexpected audio defaults: %+v", c.Audio)
	}
	if c.STT.WindowSeconds != 5.0 {
		t.Errorf("expected default window 5.0, got %f", c.STT.WindowSeconds)
	}
	if c.Results.Dir != "results" || !c.Observers.Console {
		t.Errorf("unexpected defaults: dir=%q console=%v", c.Results.Dir, c.Observers.Console)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
audio:
  source: file
  file:
    path: meeting.wav
    realtime: false
stt:
  provider: whisper
  window_seconds: 3.5
summary:
  provider: llm
  base_url: http://localhost:8080/v1
observers:
  console: false
  redis:
    enabled: true
results:
  dir: out
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Audio.Source != "file" || c.Audio.File.Path != "meeting.wav" || c.Audio.File.Realtime {
		t.Errorf("unexpected audio section: %+v", c.Audio)
	}
	if c.Audio.SampleRate != 16000 {
		t.Errorf("unset sample_rate should keep default, got %d", c.Audio.SampleRate)
	}
	if c.STT.Provider != "whisper" || c.STT.WindowSeconds != 3.5 {
		t.Errorf("unexpected stt section: %+v", c.STT)
	}
	if c.Observers.Console {
		t.Error("console should be disabled")
	}
	if !c.Observers.Redis.Enabled || c.Observers.Redis.Addr != "localhost:6379" {
		t.Errorf("unexpected redis section: %+v", c.Observers.Redis)
	}
	if c.Results.Dir != "out" {
		t.Errorf("unexpected results dir %q", c.Results.Dir)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	c, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("empty file should load defaults: %v", err)
	}
	if c.STT.Provider != "vosk" {
		t.Errorf("unexpected provider %q", c.STT.Provider)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	if _, err := Load(writeConfig(t, "audio:\n  sampel_rate: 8000\n")); err == nil {
		t.Error("expected error for misspelled field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown source", func(c *Config) { c.Audio.Source = "mic" }, "audio.source"},
		{"file without path", func(c *Config) { c.Audio.Source = "file" }, "audio.file.path"},
		{"bad input rate", func(c *Config) { c.Audio.AudioSocket.InputRate = 11025 }, "input_rate"},
		{"zero window", func(c *Config) { c.STT.WindowSeconds = 0 }, "window_seconds"},
		{"unknown stt", func(c *Config) { c.STT.Provider = "deepgram" }, "stt.provider"},
		{"llm without url", func(c *Config) { c.Summary.Provider = "llm" }, "summary.base_url"},
		{"no results dir", func(c *Config) { c.Results.Dir = "" }, "results.dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadAssemblyAI(t *testing.T) {
	path := writeConfig(t, `
stt:
  provider: assemblyai
  assemblyai:
    api_key: aai-key
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.STT.Provider != "assemblyai" || c.STT.AssemblyAI.APIKey != "aai-key" {
		t.Errorf("unexpected stt config: %+v", c.STT)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("assemblyai config should validate: %v", err)
	}
}

func TestSummaryTimeout(t *testing.T) {
	c := Default()
	if c.SummaryTimeout() != 120*time.Second {
		t.Errorf("unexpected default timeout %v", c.SummaryTimeout())
	}
	c.Summary.TimeoutSeconds = 0
	if c.SummaryTimeout() != 2*time.Minute {
		t.Errorf("unexpected fallback timeout %v", c.SummaryTimeout())
	}
}
