package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/amanullahtanweer/meeting-summarizer/internal/audio"
	"github.com/amanullahtanweer/meeting-summarizer/internal/config"
	"github.com/amanullahtanweer/meeting-summarizer/internal/observer"
	"github.com/amanullahtanweer/meeting-summarizer/internal/results"
	"github.com/amanullahtanweer/meeting-summarizer/internal/session"
	"github.com/amanullahtanweer/meeting-summarizer/internal/summarizer"
	"github.com/amanullahtanweer/meeting-summarizer/internal/transcriber"
)

const usage = `Usage: summarizer [flags] <command> [args]

Commands:
  start [file.wav]   record a meeting (from AudioSocket, or a WAV file) and summarize it
  list               list saved transcripts and summaries
  show <name>        print a saved result
  clean-results      delete all saved results
  watch              report new results as they are written

Flags:
`

func main() {
	var configFile string
	var verbose bool
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogging(cfg, verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	args := flag.Args()
	command := "start"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := results.NewStore(cfg.Results.Dir)

	switch command {
	case "start":
		if len(args) > 0 {
			cfg.Audio.Source = "file"
			cfg.Audio.File.Path = args[0]
		}
		err = runStart(ctx, cfg, store)
	case "list":
		err = runList(os.Stdout, store)
	case "show":
		if len(args) != 1 {
			flag.Usage()
			os.Exit(2)
		}
		err = runShow(os.Stdout, store, args[0])
	case "clean-results":
		err = store.Clean()
		if err == nil {
			fmt.Printf("Removed %s\n", store.Dir)
		}
	case "watch":
		err = runWatch(ctx, os.Stdout, store)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		closeLog()
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config, verbose bool) (func(), error) {
	level := slog.LevelInfo
	if cfg.Logging.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
			return nil, fmt.Errorf("logging.level: %w", err)
		}
	}
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}

func buildSource(cfg *config.Config, store *results.Store) (audio.Source, error) {
	var source audio.Source
	switch cfg.Audio.Source {
	case "audiosocket":
		source = audio.NewAudioSocketSource(audio.AudioSocketConfig{
			Listen:     cfg.Audio.AudioSocket.Listen,
			InputRate:  cfg.Audio.AudioSocket.InputRate,
			OutputRate: cfg.Audio.SampleRate,
		})
	case "file":
		source = audio.NewFileSource(audio.FileConfig{
			Path:       cfg.Audio.File.Path,
			SampleRate: cfg.Audio.SampleRate,
			ChunkSize:  cfg.Audio.ChunkSize,
			Realtime:   cfg.Audio.File.Realtime,
		})
	default:
		return nil, fmt.Errorf("unknown audio source: %s", cfg.Audio.Source)
	}

	if cfg.Audio.Record {
		if err := store.EnsureDir(); err != nil {
			return nil, err
		}
		source = audio.NewRecorder(source, store.AudioPath(time.Now()), cfg.Audio.SampleRate)
	}
	return source, nil
}

func runStart(ctx context.Context, cfg *config.Config, store *results.Store) error {
	source, err := buildSource(cfg, store)
	if err != nil {
		return err
	}

	stt, err := transcriber.New(transcriber.Config{
		Provider:         cfg.STT.Provider,
		SampleRate:       cfg.Audio.SampleRate,
		Language:         cfg.STT.Language,
		VoskServerURL:    cfg.STT.Vosk.ServerURL,
		WhisperBaseURL:   cfg.STT.Whisper.BaseURL,
		WhisperAPIKey:    cfg.STT.Whisper.APIKey,
		WhisperModel:     cfg.STT.Whisper.Model,
		AssemblyAIAPIKey: cfg.STT.AssemblyAI.APIKey,
		AssemblyAIURL:    cfg.STT.AssemblyAI.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	sum, err := summarizer.New(summarizer.Config{
		Provider:     cfg.Summary.Provider,
		BaseURL:      cfg.Summary.BaseURL,
		APIKey:       cfg.Summary.APIKey,
		Model:        cfg.Summary.Model,
		MaxTokens:    cfg.Summary.MaxTokens,
		MaxSentences: cfg.Summary.MaxSentences,
	})
	if err != nil {
		return fmt.Errorf("failed to create summarizer: %w", err)
	}

	controller := session.NewController(session.Config{
		Source:         source,
		Transcriber:    stt,
		Summarizer:     sum,
		Store:          store,
		Provider:       cfg.STT.Provider,
		SampleRate:     cfg.Audio.SampleRate,
		WindowSeconds:  cfg.STT.WindowSeconds,
		SummaryTimeout: cfg.SummaryTimeout(),
	})

	cleanup, err := addObservers(ctx, cfg, store, controller)
	if err != nil {
		return err
	}
	defer cleanup()

	switch cfg.Audio.Source {
	case "audiosocket":
		fmt.Printf("Waiting for an AudioSocket call on %s. Press Ctrl+C to stop.\n", cfg.Audio.AudioSocket.Listen)
	default:
		fmt.Printf("Transcribing %s. Press Ctrl+C to stop.\n", cfg.Audio.File.Path)
	}

	res, err := controller.Start(ctx)
	if res != nil {
		printResult(os.Stdout, res)
	}
	return err
}

func addObservers(ctx context.Context, cfg *config.Config, store *results.Store, controller *session.Controller) (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Observers.Console {
		controller.AddObserver(observer.NewConsole(os.Stdout))
	}

	if cfg.Observers.SessionLog {
		if err := store.EnsureDir(); err != nil {
			return cleanup, err
		}
		sl := observer.NewSessionLogger(store.SessionLogPath)
		controller.AddObserver(sl)
		closers = append(closers, func() { sl.Close() })
	}

	if cfg.Observers.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Observers.Redis.Addr,
			Password: cfg.Observers.Redis.Password,
			DB:       cfg.Observers.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 800*time.Millisecond)
		if err := client.Ping(pingCtx).Err(); err != nil {
			slog.Warn("Redis not reachable, segments will not be published", "addr", cfg.Observers.Redis.Addr, "error", err)
		}
		cancel()
		controller.AddObserver(observer.NewRedis(client, cfg.Observers.Redis.Prefix, cfg.Observers.Redis.Channel))
		closers = append(closers, func() { client.Close() })
	}

	if cfg.Observers.WebSocket.Enabled {
		hub := observer.NewWebSocketHub()
		hubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		go func() {
			if err := hub.ListenAndServe(hubCtx, cfg.Observers.WebSocket.Listen, cfg.Observers.WebSocket.Path); err != nil {
				slog.Error("WebSocket feed stopped", "error", err)
			}
		}()
		controller.AddObserver(hub)
		closers = append(closers, cancel)
	}

	return cleanup, nil
}

func printResult(w io.Writer, res *session.Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Meeting summary:")
	fmt.Fprintln(w, strings.Repeat("=", 30))
	fmt.Fprintln(w, res.Summary)
	fmt.Fprintln(w)
	if res.TranscriptPath != "" {
		fmt.Fprintf(w, "Transcript: %s\n", res.TranscriptPath)
	}
	fmt.Fprintf(w, "Summary:    %s\n", res.SummaryPath)
}

func runList(w io.Writer, store *results.Store) error {
	files, err := store.List()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(w, "No results in %s\n", store.Dir)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.ModTime.Format(results.HeaderTimeLayout))
	}
	return tw.Flush()
}

func runShow(w io.Writer, store *results.Store, name string) error {
	content, err := store.Read(filepath.Base(name))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

func runWatch(ctx context.Context, w io.Writer, store *results.Store) error {
	if err := store.EnsureDir(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Watching %s. Press Ctrl+C to stop.\n", store.Dir)

	return store.Watch(ctx, func(path string) {
		name := filepath.Base(path)
		if !strings.HasPrefix(name, "transcript_") {
			fmt.Fprintf(w, "%s\n", name)
			return
		}
		tr, err := results.ParseTranscriptFile(path)
		if err != nil {
			// The file may still be mid-write; the next event retries.
			slog.Debug("Transcript not parseable yet", "path", path, "error", err)
			return
		}
		fmt.Fprintf(w, "%s  %d segments, %.2f seconds, speakers: %s\n",
			name, len(tr.Segments), tr.Duration, strings.Join(tr.Speakers(), ", "))
	})
}
