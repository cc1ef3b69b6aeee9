package domain

import "time"

// Notification types published by the session orchestrator
const (
	EventMatchStarted      = "match_started"
	EventMatchLeft         = "match_left"
	EventVariantClassified = "variant_classified"
)

// Event is a fire-and-forget notification for other subsystems
// (overlay layout resets, command handlers)
type Event struct {
	Type      string      `json:"event"`
	MatchID   string      `json:"match_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// VariantClassifiedEvent is sent once per match when the variant is known
type VariantClassifiedEvent struct {
	Variant Variant `json:"variant"`
}

// MatchLeftEvent is sent when the client leaves a tracked match
type MatchLeftEvent struct {
	Retained bool `json:"retained"` // match state kept for a possible rejoin
}
