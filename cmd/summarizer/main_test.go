package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/config"
	"github.com/amanullahtanweer/meeting-summarizer/internal/results"
	"github.com/amanullahtanweer/meeting-summarizer/internal/session"
	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

func TestListAndShow(t *testing.T) {
	store := results.NewStore(t.TempDir())

	var out bytes.Buffer
	if err := runList(&out, store); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No results") {
		t.Errorf("expected empty listing, got %q", out.String())
	}

	created := time.Date(2024, 5, 2, 14, 30, 0, 0, time.Local)
	path, err := store.SaveTranscript(&transcript.Transcript{
		Segments:  []transcript.Segment{{StartTime: 1, Text: "hi", Speaker: "Speaker 1"}},
		CreatedAt: created,
		Duration:  6,
	})
	if err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := runList(&out, store); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "transcript_20240502_143000.txt") {
		t.Errorf("listing missing transcript:\n%s", out.String())
	}

	out.Reset()
	if err := runShow(&out, store, path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "[1.00s] Speaker 1: hi") {
		t.Errorf("unexpected show output:\n%s", out.String())
	}
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, &session.Result{Summary: session.NoSpeechMessage, SummaryPath: "results/summary_x.txt"})

	got := out.String()
	if !strings.Contains(got, session.NoSpeechMessage) || strings.Contains(got, "Transcript:") {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestBuildSource(t *testing.T) {
	store := results.NewStore(t.TempDir())

	cfg := config.Default()
	cfg.Audio.Source = "file"
	cfg.Audio.File.Path = "meeting.wav"
	cfg.Audio.Record = true

	source, err := buildSource(cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := source.(interface{ Path() string }); !ok {
		t.Errorf("expected recorder wrapping, got %T", source)
	}

	cfg.Audio.Source = "mic"
	if _, err := buildSource(cfg, store); err == nil {
		t.Error("expected error for unknown source")
	}
}
