package collector

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ernie/bedtrack/internal/domain"
)

// ErrUnknownEvent is returned by ParseLine for lines that are not host events
var ErrUnknownEvent = errors.New("unknown event")

// HostEvent is one event observed by the game client
type HostEvent struct {
	Timestamp time.Time
	Type      string
	Data      interface{}
}

// Event types
const (
	EventTypeJoin       = "join"
	EventTypeChat       = "chat"
	EventTypeScoreboard = "scoreboard"
	EventTypeTick       = "tick"
	EventTypeLoading    = "loading"
	EventTypeUnload     = "unload"
	EventTypeDisconnect = "disconnect"
	EventTypeGenerator  = "generator"
)

// Event data structures
type JoinData struct {
	Host string
}

type ChatData struct {
	Text string
}

type ScoreboardData struct {
	Lines []string
}

type GeneratorData struct {
	Kind    domain.GeneratorKind
	Seconds *int // nil when the countdown label is gone
}

// Regular expressions for parsing transcript lines
var (
	// Matches RFC 3339 timestamp at start of line: 2026-01-12T10:58:23Z or 2026-01-12T10:58:23.456Z
	timestampRegex = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)\s+`)

	// Event patterns (after timestamp is stripped)
	joinRegex       = regexp.MustCompile(`^join: (\S+)$`)
	chatRegex       = regexp.MustCompile(`^chat: (.*)$`)
	scoreboardRegex = regexp.MustCompile(`^scoreboard:(?: (.*))?$`)
	generatorRegex  = regexp.MustCompile(`^generator: (\w+) (\d+|none)$`)
	bareRegex       = regexp.MustCompile(`^(tick|loading|unload|disconnect)$`)
)

// ParseLine parses a single transcript line into an event
func ParseLine(line string) (*HostEvent, error) {
	var timestamp time.Time
	content := line

	if match := timestampRegex.FindStringSubmatch(line); match != nil {
		ts, err := time.Parse(time.RFC3339Nano, match[1])
		if err != nil {
			// Try without timezone (local time format: 2006-01-02T15:04:05)
			ts, err = time.ParseInLocation("2006-01-02T15:04:05", match[1], time.Local)
		}
		if err == nil {
			timestamp = ts
			content = line[len(match[0]):]
		}
	}

	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	event := &HostEvent{Timestamp: timestamp}

	if match := bareRegex.FindStringSubmatch(content); match != nil {
		event.Type = match[1]
		return event, nil
	}

	if match := chatRegex.FindStringSubmatch(content); match != nil {
		event.Type = EventTypeChat
		event.Data = ChatData{Text: match[1]}
		return event, nil
	}

	if match := joinRegex.FindStringSubmatch(content); match != nil {
		event.Type = EventTypeJoin
		event.Data = JoinData{Host: match[1]}
		return event, nil
	}

	if match := scoreboardRegex.FindStringSubmatch(content); match != nil {
		var lines []string
		if match[1] != "" {
			lines = strings.Split(match[1], "|")
		}
		event.Type = EventTypeScoreboard
		event.Data = ScoreboardData{Lines: lines}
		return event, nil
	}

	if match := generatorRegex.FindStringSubmatch(content); match != nil {
		kind, err := domain.ParseGeneratorKind(match[1])
		if err != nil {
			return nil, fmt.Errorf("parsing generator event: %w", err)
		}
		data := GeneratorData{Kind: kind}
		if match[2] != "none" {
			secs, err := strconv.Atoi(match[2])
			if err != nil {
				return nil, fmt.Errorf("parsing generator countdown: %w", err)
			}
			data.Seconds = &secs
		}
		event.Type = EventTypeGenerator
		event.Data = data
		return event, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, content)
}
