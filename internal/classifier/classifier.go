package classifier

import (
	"regexp"

	"github.com/ernie/bedtrack/internal/domain"
)

// Scoreboard markers, matched as whole words. Readiness markers show up
// once the in-match sidebar has replaced the pre-game one.
var (
	mainMatchMarker = regexp.MustCompile(`\bBED WARS\b`)
	captureMarker   = regexp.MustCompile(`\bCAPTURE\b`)
	fastMarker      = regexp.MustCompile(`\bRush\b`)
	castleMarker    = regexp.MustCompile(`\bCastle\b`)
)

// Source is the scoreboard side-channel, queried on demand
type Source interface {
	ScoreboardLines() []string
}

// State of the classifier
type State int

const (
	StateIdle State = iota
	StateDetecting
)

func (s State) String() string {
	if s == StateDetecting {
		return "detecting"
	}
	return "idle"
}

// Classifier determines the variant of the current match exactly once
type Classifier struct {
	source Source
	state  State
}

// New creates an idle classifier reading from source
func New(source Source) *Classifier {
	return &Classifier{source: source}
}

// StartDetection begins polling on the next tick
func (c *Classifier) StartDetection() {
	c.state = StateDetecting
}

// StopDetection returns to idle without classifying
func (c *Classifier) StopDetection() {
	c.state = StateIdle
}

// State returns the current classifier state
func (c *Classifier) State() State {
	return c.state
}

// Tick polls the scoreboard once. It returns the variant and true exactly
// once per detection, when the scoreboard is ready. There is no retry limit.
func (c *Classifier) Tick() (domain.Variant, bool) {
	if c.state != StateDetecting {
		return "", false
	}

	lines := c.source.ScoreboardLines()
	if !containsAny(lines, mainMatchMarker, captureMarker) {
		return "", false
	}

	variant := domain.VariantNormal
	switch {
	case containsAny(lines, fastMarker):
		variant = domain.VariantFast
	case containsAny(lines, castleMarker):
		variant = domain.VariantCastle
	}

	c.state = StateIdle
	return variant, true
}

// containsAny reports whether any cleaned line matches any of the markers
func containsAny(lines []string, markers ...*regexp.Regexp) bool {
	for _, line := range lines {
		clean := domain.CleanText(line)
		for _, m := range markers {
			if m.MatchString(clean) {
				return true
			}
		}
	}
	return false
}
