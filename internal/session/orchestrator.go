package session

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ernie/bedtrack/internal/classifier"
	"github.com/ernie/bedtrack/internal/connectivity"
	"github.com/ernie/bedtrack/internal/domain"
	"github.com/ernie/bedtrack/internal/lifecycle"
	"github.com/ernie/bedtrack/internal/match"
)

// ErrNoActiveMatch is returned by match queries made while no match is
// active. Callers must check HasActiveMatch first.
var ErrNoActiveMatch = errors.New("no active match")

const eventBufferSize = 100

// State of the orchestrator
type State string

// State constants
const (
	StateIdle               State = "idle"
	StateClassifyingPending State = "classifying_pending"
	StateActive             State = "active"
)

// Phase is the combined connectivity and match phase, for display
type Phase string

// Phase constants
const (
	PhaseDisconnected           Phase = "disconnected"
	PhaseConnectedIdle          Phase = "connected_idle"
	PhaseAwaitingClassification Phase = "awaiting_classification"
	PhaseActiveMatch            Phase = "active_match"
)

// Orchestrator wires the trackers together and owns the single live
// match state. All methods must be called from one goroutine, in the
// order the host observed the events.
type Orchestrator struct {
	log        logrus.FieldLogger
	conn       *connectivity.Tracker
	lifecycle  *lifecycle.Tracker
	arbiter    *lifecycle.TransferArbiter
	classifier *classifier.Classifier
	world      match.WorldQuery
	events     chan domain.Event

	state           State
	pendingTransfer bool
	current         *match.State
}

// New creates an idle orchestrator. scoreboard is polled on each tick while
// classifying; world may be nil.
func New(scoreboard classifier.Source, world match.WorldQuery, log logrus.FieldLogger) *Orchestrator {
	conn := connectivity.NewTracker()
	tracker := lifecycle.NewTracker(conn)
	return &Orchestrator{
		log:        log,
		conn:       conn,
		lifecycle:  tracker,
		arbiter:    lifecycle.NewTransferArbiter(conn, tracker),
		classifier: classifier.New(scoreboard),
		world:      world,
		events:     make(chan domain.Event, eventBufferSize),
		state:      StateIdle,
	}
}

// Events returns the notification channel. Notifications are dropped when
// nobody drains it.
func (o *Orchestrator) Events() <-chan domain.Event {
	return o.events
}

// OnWorldJoin handles a world join; trackedPlatform reports whether the
// world belongs to the tracked platform
func (o *Orchestrator) OnWorldJoin(trackedPlatform bool) {
	o.conn.OnWorldJoin(trackedPlatform)
	o.log.WithField("tracked", trackedPlatform).Debug("World joined")
}

// OnWorldUnload handles the current world being unloaded
func (o *Orchestrator) OnWorldUnload() {
	o.conn.OnWorldUnload()
}

// OnDisconnect handles the client leaving the platform
func (o *Orchestrator) OnDisconnect() {
	if sig, ok := o.lifecycle.OnDisconnect(); ok {
		o.handleSignal(sig, "")
	}
	o.conn.OnWorldUnload()
}

// OnLoadingScreen handles the "loading a new world" screen being shown
func (o *Orchestrator) OnLoadingScreen() {
	if sig, ok := o.lifecycle.OnScreenTransition(); ok {
		o.handleSignal(sig, "")
	}
}

// OnTick polls the classifier once per host clock pulse
func (o *Orchestrator) OnTick() {
	variant, ok := o.classifier.Tick()
	if !ok {
		return
	}
	o.onVariantClassified(variant)
}

// HandleChat routes one chat line. Lifecycle phrases take priority, then
// transfer phrases, and anything else goes to the active match.
func (o *Orchestrator) HandleChat(raw string) {
	line := domain.CleanText(raw)
	if line == "" {
		return
	}

	if sig, ok := o.lifecycle.HandleLine(line); ok {
		o.handleSignal(sig, line)
		return
	}
	if sig, ok := o.arbiter.HandleLine(line); ok {
		o.handleSignal(sig, line)
		return
	}

	if o.state != StateActive || !o.conn.Connected() {
		return
	}
	if change, ok := o.current.ApplyLine(line); ok {
		o.log.WithFields(logrus.Fields{
			"match_id": o.current.ID(),
			"change":   change,
		}).Debug("Match state updated")
	}
}

func (o *Orchestrator) handleSignal(sig lifecycle.Signal, line string) {
	switch sig {
	case lifecycle.SignalMatchStarted:
		o.onMatchStarted()
	case lifecycle.SignalMatchRejoined:
		o.onMatchRejoined()
	case lifecycle.SignalMatchLeft:
		o.onMatchLeft()
	case lifecycle.SignalJoinedInProgressMatch:
		target, _ := lifecycle.TransferTarget(line)
		o.onJoinedInProgressMatch(target)
	case lifecycle.SignalTransferCancelled:
		o.onTransferCancelled()
	}
}

// A new match always supersedes a stale one, and any transfer seen before
// it has been resolved by the start itself
func (o *Orchestrator) onMatchStarted() {
	o.pendingTransfer = false
	o.discard()
	o.classifier.StartDetection()
	o.setState(StateClassifyingPending)
	o.emitEvent(domain.EventMatchStarted, "", nil)
}

func (o *Orchestrator) onVariantClassified(variant domain.Variant) {
	o.current = match.NewState(variant, o.world)
	o.setState(StateActive)
	o.log.WithFields(logrus.Fields{
		"match_id": o.current.ID(),
		"variant":  variant,
	}).Info("Match classified")
	o.emitEvent(domain.EventVariantClassified, o.current.ID(), domain.VariantClassifiedEvent{Variant: variant})
}

func (o *Orchestrator) onJoinedInProgressMatch(target string) {
	entry := o.log.WithField("target", target)
	if o.state == StateClassifyingPending || o.state == StateActive {
		// the transfer can still fail, decide on the rejoin
		o.pendingTransfer = true
		entry.Info("Transfer pending")
		return
	}
	o.discard()
	entry.Debug("Transfer outside a match")
}

func (o *Orchestrator) onMatchRejoined() {
	switch {
	case o.pendingTransfer:
		// the transfer went through, this is a different match
		o.pendingTransfer = false
		o.discard()
		o.classifier.StartDetection()
		o.setState(StateClassifyingPending)
	case o.current == nil:
		// same match, but the state was lost with a restart
		o.classifier.StartDetection()
		o.setState(StateClassifyingPending)
	default:
		o.setState(StateActive)
		o.log.WithField("match_id", o.current.ID()).Info("Match resumed")
	}
}

func (o *Orchestrator) onTransferCancelled() {
	o.pendingTransfer = false
	o.log.Info("Transfer cancelled")
}

// The match state is kept so a rejoin of the same match continues from it
func (o *Orchestrator) onMatchLeft() {
	o.classifier.StopDetection()
	o.setState(StateIdle)

	matchID := ""
	if o.current != nil {
		matchID = o.current.ID()
	}
	o.emitEvent(domain.EventMatchLeft, matchID, domain.MatchLeftEvent{Retained: o.current != nil})
}

func (o *Orchestrator) discard() {
	if o.current == nil {
		return
	}
	o.log.WithField("match_id", o.current.ID()).Info("Match state discarded")
	o.current = nil
}

func (o *Orchestrator) setState(s State) {
	if o.state == s {
		return
	}
	o.log.WithFields(logrus.Fields{"from": o.state, "to": s}).Debug("State changed")
	o.state = s
}

// emitEvent sends a notification without blocking
func (o *Orchestrator) emitEvent(eventType, matchID string, data interface{}) {
	event := domain.Event{
		Type:      eventType,
		MatchID:   matchID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	select {
	case o.events <- event:
	default:
		o.log.WithField("event", eventType).Warn("Event channel full, dropping notification")
	}
}

// State returns the orchestrator state
func (o *Orchestrator) State() State {
	return o.state
}

// PendingTransfer reports whether a transfer is awaiting its outcome
func (o *Orchestrator) PendingTransfer() bool {
	return o.pendingTransfer
}

// Phase combines connectivity with the orchestrator state
func (o *Orchestrator) Phase() Phase {
	if !o.conn.Connected() {
		return PhaseDisconnected
	}
	switch o.state {
	case StateClassifyingPending:
		return PhaseAwaitingClassification
	case StateActive:
		return PhaseActiveMatch
	default:
		return PhaseConnectedIdle
	}
}

// HasActiveMatch reports whether match queries may be made
func (o *Orchestrator) HasActiveMatch() bool {
	return o.state == StateActive && o.current != nil
}

// Match returns the live match state
func (o *Orchestrator) Match() (*match.State, error) {
	if !o.HasActiveMatch() {
		return nil, ErrNoActiveMatch
	}
	return o.current, nil
}

// Snapshot returns a copy of the live match state
func (o *Orchestrator) Snapshot() (match.Snapshot, error) {
	m, err := o.Match()
	if err != nil {
		return match.Snapshot{}, err
	}
	return m.Snapshot(), nil
}

// MustSnapshot is like Snapshot but panics when no match is active
func (o *Orchestrator) MustSnapshot() match.Snapshot {
	snap, err := o.Snapshot()
	if err != nil {
		panic(err)
	}
	return snap
}

// GeneratorTiming returns the seconds until the next generator spawn.
// ok is false when the countdown cannot be read right now.
func (o *Orchestrator) GeneratorTiming(kind domain.GeneratorKind) (secs int, ok bool, err error) {
	m, err := o.Match()
	if err != nil {
		return 0, false, err
	}
	secs, ok = m.GeneratorTiming(kind)
	return secs, ok, nil
}
