package session

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernie/bedtrack/internal/domain"
	"github.com/ernie/bedtrack/internal/match"
)

const (
	startLine     = "Protect your bed and destroy the enemy beds."
	rejoinLine    = "You have rejoined your game!"
	transferLine  = "Sending you to mini42B!"
	cancelLine    = "You are already connected to this server!"
	startedLine   = "This game has already started!"
	purchaseAlarm = "Steve purchased Alarm Trap"
)

type scoreboard struct {
	lines []string
}

func (s *scoreboard) ScoreboardLines() []string { return s.lines }

type harness struct {
	*Orchestrator
	board *scoreboard
	hook  *logtest.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	board := &scoreboard{}
	h := &harness{Orchestrator: New(board, nil, logger), board: board, hook: hook}
	h.OnWorldJoin(true)
	return h
}

// startMatch drives a match start through classification
func (h *harness) startMatch(t *testing.T, variant ...string) *match.State {
	t.Helper()
	h.HandleChat(startLine)
	require.Equal(t, StateClassifyingPending, h.State())

	h.board.lines = append([]string{"BED WARS"}, variant...)
	h.OnTick()
	require.Equal(t, StateActive, h.State())

	m, err := h.Match()
	require.NoError(t, err)
	return m
}

func drain(ch <-chan domain.Event) []string {
	var types []string
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestStartAndClassify(t *testing.T) {
	h := newHarness(t)
	h.HandleChat(startLine)
	assert.Equal(t, StateClassifyingPending, h.State())
	assert.Equal(t, PhaseAwaitingClassification, h.Phase())
	assert.False(t, h.HasActiveMatch())

	// scoreboard not ready yet
	h.board.lines = []string{"Waiting..."}
	h.OnTick()
	h.OnTick()
	assert.Equal(t, StateClassifyingPending, h.State())

	h.board.lines = []string{"§e§lBED WARS", "Castle"}
	h.OnTick()
	assert.Equal(t, StateActive, h.State())
	assert.Equal(t, PhaseActiveMatch, h.Phase())

	snap := h.MustSnapshot()
	assert.Equal(t, domain.VariantCastle, snap.Variant)
	assert.Len(t, snap.Traps, match.TrapCapacity)

	assert.Equal(t, []string{domain.EventMatchStarted, domain.EventVariantClassified}, drain(h.Events()))
}

func TestChatRoutedToActiveMatch(t *testing.T) {
	h := newHarness(t)
	h.startMatch(t)

	h.HandleChat("§a" + purchaseAlarm)
	h.HandleChat("Steve purchased Reinforced Armor II")

	snap := h.MustSnapshot()
	require.Len(t, snap.Traps, 1)
	assert.Equal(t, domain.TrapAlarm, snap.Traps[0].Kind)
	assert.Equal(t, 2, snap.ArmorTier)
}

func TestNewMatchSupersedesStaleState(t *testing.T) {
	h := newHarness(t)
	first := h.startMatch(t)
	h.OnLoadingScreen()

	second := h.startMatch(t)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestDeferredTransferCancelled(t *testing.T) {
	for _, failure := range []string{cancelLine, startedLine} {
		t.Run(failure, func(t *testing.T) {
			h := newHarness(t)
			original := h.startMatch(t)

			h.HandleChat(transferLine)
			assert.True(t, h.PendingTransfer())

			h.HandleChat(failure)
			assert.False(t, h.PendingTransfer())
			assert.Equal(t, StateActive, h.State())

			m, err := h.Match()
			require.NoError(t, err)
			assert.Same(t, original, m)
		})
	}
}

func TestDeferredTransferCompleted(t *testing.T) {
	h := newHarness(t)
	original := h.startMatch(t)

	h.HandleChat(transferLine)
	h.HandleChat(rejoinLine)

	assert.Equal(t, StateClassifyingPending, h.State())
	assert.False(t, h.PendingTransfer())
	_, err := h.Match()
	assert.ErrorIs(t, err, ErrNoActiveMatch)

	h.board.lines = []string{"BED WARS"}
	h.OnTick()
	m, err := h.Match()
	require.NoError(t, err)
	assert.NotSame(t, original, m)
}

func TestMatchStartClearsPendingTransfer(t *testing.T) {
	h := newHarness(t)
	h.startMatch(t)

	h.HandleChat(transferLine)
	require.True(t, h.PendingTransfer())
	h.OnLoadingScreen()

	second := h.startMatch(t)
	assert.False(t, h.PendingTransfer())
	h.HandleChat(purchaseAlarm)

	// a brief reconnect to the new match resumes it
	h.OnDisconnect()
	h.OnWorldJoin(true)
	h.HandleChat(rejoinLine)

	require.Equal(t, StateActive, h.State())
	m, err := h.Match()
	require.NoError(t, err)
	assert.Same(t, second, m)
	assert.Len(t, m.Snapshot().Traps, 1)
}

func TestTransferSurvivesLoadingScreen(t *testing.T) {
	h := newHarness(t)
	original := h.startMatch(t)

	h.HandleChat(transferLine)
	h.OnLoadingScreen()
	assert.True(t, h.PendingTransfer())

	h.HandleChat(rejoinLine)
	assert.False(t, h.PendingTransfer())
	assert.Equal(t, StateClassifyingPending, h.State())

	h.board.lines = []string{"BED WARS"}
	h.OnTick()
	m, err := h.Match()
	require.NoError(t, err)
	assert.NotSame(t, original, m)
}

func TestTransferWhileIdleDiscardsStaleState(t *testing.T) {
	h := newHarness(t)
	h.startMatch(t)
	h.OnLoadingScreen()
	require.Equal(t, StateIdle, h.State())

	h.HandleChat(transferLine)
	assert.False(t, h.PendingTransfer())

	// with the stale state gone a rejoin reclassifies instead of resuming
	h.HandleChat(rejoinLine)
	assert.Equal(t, StateClassifyingPending, h.State())
}

func TestRestartRecovery(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, StateIdle, h.State())

	h.HandleChat(rejoinLine)

	assert.Equal(t, StateClassifyingPending, h.State())
	assert.False(t, h.HasActiveMatch())
}

func TestResumeWithoutRestart(t *testing.T) {
	h := newHarness(t)
	original := h.startMatch(t)

	h.HandleChat(rejoinLine)

	assert.Equal(t, StateActive, h.State())
	m, err := h.Match()
	require.NoError(t, err)
	assert.Same(t, original, m)
}

func TestLeaveKeepsStateForRejoin(t *testing.T) {
	h := newHarness(t)
	original := h.startMatch(t)
	h.HandleChat(purchaseAlarm)

	h.OnDisconnect()
	assert.Equal(t, StateIdle, h.State())
	assert.Equal(t, PhaseDisconnected, h.Phase())
	assert.False(t, h.HasActiveMatch())

	// lines are ignored while disconnected
	h.HandleChat(startLine)
	assert.Equal(t, StateIdle, h.State())

	h.OnWorldJoin(true)
	h.HandleChat(rejoinLine)
	require.Equal(t, StateActive, h.State())

	m, err := h.Match()
	require.NoError(t, err)
	assert.Same(t, original, m)
	assert.Len(t, m.Snapshot().Traps, 1)
}

func TestLeaveStopsClassification(t *testing.T) {
	h := newHarness(t)
	h.HandleChat(startLine)
	h.OnLoadingScreen()

	h.board.lines = []string{"BED WARS"}
	h.OnTick()
	assert.Equal(t, StateIdle, h.State())
	assert.False(t, h.HasActiveMatch())

	events := drain(h.Events())
	assert.Equal(t, []string{domain.EventMatchStarted, domain.EventMatchLeft}, events)
}

func TestCancelOutsideMatchIgnored(t *testing.T) {
	h := newHarness(t)
	h.HandleChat(cancelLine)
	assert.Equal(t, StateIdle, h.State())
	assert.False(t, h.PendingTransfer())
}

func TestQueriesWithoutMatch(t *testing.T) {
	h := newHarness(t)

	_, err := h.Snapshot()
	assert.ErrorIs(t, err, ErrNoActiveMatch)

	_, _, err = h.GeneratorTiming(domain.GeneratorDiamond)
	assert.ErrorIs(t, err, ErrNoActiveMatch)

	assert.PanicsWithError(t, ErrNoActiveMatch.Error(), func() { h.MustSnapshot() })
}

func TestUntrackedWorldIgnored(t *testing.T) {
	h := newHarness(t)
	h.OnWorldJoin(false)

	h.HandleChat(startLine)
	assert.Equal(t, StateIdle, h.State())
	assert.Equal(t, PhaseDisconnected, h.Phase())
}

func TestTransitionsLogged(t *testing.T) {
	h := newHarness(t)
	h.startMatch(t, "Rush")

	var classified *logrus.Entry
	for _, e := range h.hook.AllEntries() {
		if e.Message == "Match classified" {
			classified = e
		}
	}
	require.NotNil(t, classified)
	assert.Equal(t, domain.VariantFast, classified.Data["variant"])
	assert.Equal(t, logrus.InfoLevel, classified.Level)
}
