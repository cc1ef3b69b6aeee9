// bedtrack - match state tracking from client chat transcripts
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ernie/bedtrack/internal/collector"
	"github.com/ernie/bedtrack/internal/config"
	"github.com/ernie/bedtrack/internal/domain"
	"github.com/ernie/bedtrack/internal/match"
	"github.com/ernie/bedtrack/internal/session"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "replay":
		cmdReplay(os.Args[2:])
	case "watch":
		cmdWatch(os.Args[2:])
	case "version":
		fmt.Printf("bedtrack %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: bedtrack <command> [options] [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  replay [--follow] [--json] <file>   Replay a transcript and print the final match state")
	fmt.Println("  watch <transcript>                  Follow a transcript and print notifications as they happen")
	fmt.Println("  version                             Show version")
	fmt.Println("  help                                Show this help")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  --config <path>    Path to configuration file (default: built-in defaults)")
	fmt.Println()
	fmt.Println("Transcripts may be plain text, gzip or zstd compressed. Only plain")
	fmt.Println("transcripts can be followed.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  bedtrack replay session.log.zst")
	fmt.Println("  bedtrack replay --follow --json ~/.minecraft/logs/bedtrack.log")
	fmt.Println("  bedtrack watch --config bedtrack.yml ~/.minecraft/logs/bedtrack.log")
}

// loadConfig loads the config file, or the defaults when path is empty
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds a logger writing to stderr. In auto format, a terminal
// gets coloured text and anything else gets JSON.
func newLogger(cfg config.LogConfig, out *os.File) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q, using info\n", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	format := cfg.Format
	if format == "auto" {
		format = "json"
		if term.IsTerminal(int(out.Fd())) {
			format = "text"
		}
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	follow := fs.Bool("follow", false, "keep following the transcript until interrupted")
	asJSON := fs.Bool("json", false, "print the final match state as JSON")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: bedtrack replay [--follow] [--json] <transcript>")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := newLogger(cfg.Log, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pump := collector.NewPump(cfg, logger)
	notifications, err := replayTranscript(ctx, pump, fs.Arg(0), *follow, cfg.Transcript.PollInterval)
	if err != nil {
		logger.WithError(err).Fatal("Replay failed")
	}
	logger.WithField("notifications", notifications).Info("Replay complete")

	if err := printSnapshot(os.Stdout, pump.Session(), *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// replayTranscript feeds the transcript through pump and returns how many
// notifications it produced. With follow set it keeps reading appended
// lines until ctx is done.
func replayTranscript(ctx context.Context, pump *collector.Pump, path string, follow bool, poll time.Duration) (int, error) {
	tailer := collector.NewTailer(path, follow, poll)

	notifications := 0
	if err := tailer.Replay(func(event collector.HostEvent) {
		pump.HandleEvent(event)
		notifications += drainEvents(pump.Events(), io.Discard)
	}); err != nil {
		return notifications, err
	}
	if !follow {
		return notifications, nil
	}

	if err := tailer.Start(); err != nil {
		return notifications, fmt.Errorf("following transcript: %w", err)
	}
	defer tailer.Stop()

	counted := make(chan int)
	go func() {
		n := 0
		for {
			select {
			case <-ctx.Done():
				counted <- n
				return
			case <-pump.Events():
				n++
			}
		}
	}()

	pump.Run(ctx, tailer)
	notifications += <-counted
	notifications += drainEvents(pump.Events(), io.Discard)
	return notifications, nil
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: bedtrack watch <transcript>")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := newLogger(cfg.Log, os.Stderr)

	pump := collector.NewPump(cfg, logger)
	tailer := collector.NewTailer(fs.Arg(0), true, cfg.Transcript.PollInterval)

	// Catch up with what is already in the transcript, then follow it
	if err := tailer.Replay(func(event collector.HostEvent) {
		pump.HandleEvent(event)
		drainEvents(pump.Events(), io.Discard)
	}); err != nil {
		logger.WithError(err).Fatal("Replay failed")
	}
	if err := tailer.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to follow transcript")
	}
	defer tailer.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Only pump.Run touches the orchestrator; this goroutine just reads
	// the notification channel
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-pump.Events():
				printEvent(os.Stdout, event)
			}
		}
	}()

	logger.WithField("transcript", fs.Arg(0)).Info("Following transcript")
	pump.Run(ctx, tailer)
	logger.Info("Stopped")
}

// drainEvents prints queued notifications and returns how many there were
func drainEvents(events <-chan domain.Event, w io.Writer) int {
	n := 0
	for {
		select {
		case event := <-events:
			printEvent(w, event)
			n++
		default:
			return n
		}
	}
}

func printEvent(w io.Writer, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintln(w, string(data))
}

func printSnapshot(w io.Writer, s *session.Orchestrator, asJSON bool) error {
	snap, err := s.Snapshot()
	if errors.Is(err, session.ErrNoActiveMatch) {
		fmt.Fprintf(w, "No active match (%s)\n", s.Phase())
		return nil
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "MATCH\t%s\n", snap.MatchID)
	fmt.Fprintf(tw, "VARIANT\t%s\n", snap.Variant)
	fmt.Fprintf(tw, "FORGE\t%s\n", snap.Forge)
	fmt.Fprintf(tw, "SHARPENED SWORDS\t%t\n", snap.SharpenedSwords)
	fmt.Fprintf(tw, "HEAL POOL\t%t\n", snap.HealPool)
	fmt.Fprintf(tw, "REINFORCED ARMOR\t%d\n", snap.ArmorTier)
	fmt.Fprintf(tw, "TRAPS\t%s\n", formatTraps(snap.Traps))
	return tw.Flush()
}

func formatTraps(traps []match.CountedTrap) string {
	if len(traps) == 0 {
		return "-"
	}
	parts := make([]string, len(traps))
	for i, t := range traps {
		parts[i] = fmt.Sprintf("%s (%d)", t.Kind, t.Remaining)
	}
	return strings.Join(parts, ", ")
}
