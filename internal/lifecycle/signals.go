package lifecycle

import "regexp"

// Signal is a lifecycle transition derived from the text stream
type Signal string

// Signal types
const (
	SignalMatchStarted          Signal = "match_started"
	SignalMatchRejoined         Signal = "match_rejoined"
	SignalMatchLeft             Signal = "match_left"
	SignalJoinedInProgressMatch Signal = "joined_in_progress_match"
	SignalTransferCancelled     Signal = "transfer_cancelled"
)

// ConnectionState reports platform connectivity
type ConnectionState interface {
	Connected() bool
}

// Trigger phrases, matched against cleaned chat lines
var (
	// The capture sub-mode announces its start with a different line
	matchStartRegexes = []*regexp.Regexp{
		regexp.MustCompile(`^Protect your bed and destroy the enemy beds\.$`),
		regexp.MustCompile(`^Defend your bed and capture the enemy beds!$`),
	}
	rejoinRegex = regexp.MustCompile(`^You have rejoined your game!?$`)

	transferRegex = regexp.MustCompile(`^Sending you to (\S+)!$`)
	// Both also appear outside of transfers (lobby hopping, party warps)
	transferFailureRegexes = []*regexp.Regexp{
		regexp.MustCompile(`^You are already connected to this server!?$`),
		regexp.MustCompile(`^This game has already started!?$`),
	}
)
