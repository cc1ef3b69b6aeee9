package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ernie/bedtrack/internal/config"
	"github.com/ernie/bedtrack/internal/domain"
	"github.com/ernie/bedtrack/internal/match"
	"github.com/ernie/bedtrack/internal/session"
)

// Pump feeds host events into a session orchestrator in delivery order.
// It also plays the host's side channels: the scoreboard seen by the
// classifier and the generator labels read by the world query.
type Pump struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	session *session.Orchestrator

	scoreboard []string
	labels     map[domain.GeneratorKind]int
}

// NewPump creates a pump with a fresh orchestrator
func NewPump(cfg *config.Config, log logrus.FieldLogger) *Pump {
	p := &Pump{
		cfg:    cfg,
		log:    log,
		labels: make(map[domain.GeneratorKind]int),
	}
	p.session = session.New(p, p, log)
	return p
}

// Session returns the orchestrator driven by this pump
func (p *Pump) Session() *session.Orchestrator {
	return p.session
}

// Events returns the orchestrator's notification channel
func (p *Pump) Events() <-chan domain.Event {
	return p.session.Events()
}

// HandleEvent processes a single host event
func (p *Pump) HandleEvent(event HostEvent) {
	switch event.Type {
	case EventTypeJoin:
		data := event.Data.(JoinData)
		tracked := p.cfg.Tracking.IsTracked(data.Host)
		p.log.WithFields(logrus.Fields{"host": data.Host, "tracked": tracked}).Info("Joined world")
		p.session.OnWorldJoin(tracked)

	case EventTypeChat:
		data := event.Data.(ChatData)
		p.session.HandleChat(data.Text)

	case EventTypeScoreboard:
		data := event.Data.(ScoreboardData)
		p.scoreboard = data.Lines

	case EventTypeTick:
		p.session.OnTick()

	case EventTypeLoading:
		p.session.OnLoadingScreen()

	case EventTypeUnload:
		p.session.OnWorldUnload()
		// labels belong to the unloaded world
		p.labels = make(map[domain.GeneratorKind]int)

	case EventTypeDisconnect:
		p.session.OnDisconnect()
		p.scoreboard = nil

	case EventTypeGenerator:
		data := event.Data.(GeneratorData)
		if data.Seconds == nil {
			delete(p.labels, data.Kind)
		} else {
			p.labels[data.Kind] = *data.Seconds
		}
	}
}

// Run processes followed events until ctx is done or the tailer stops.
// When tick_interval is set, clock pulses are generated here as well.
func (p *Pump) Run(ctx context.Context, tailer *Tailer) {
	var tick <-chan time.Time
	if p.cfg.Tracking.TickInterval > 0 {
		ticker := time.NewTicker(p.cfg.Tracking.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tailer.done:
			return
		case err := <-tailer.Errors:
			p.log.WithError(err).Warn("Transcript tailer error")
		case event := <-tailer.Events:
			p.HandleEvent(event)
		case <-tick:
			p.session.OnTick()
		}
	}
}

// ScoreboardLines returns the last scoreboard the host reported
func (p *Pump) ScoreboardLines() []string {
	return p.scoreboard
}

// generatorLocators places each generator kind at a fixed spot; the
// transcript only carries the countdown labels
var generatorLocators = map[domain.GeneratorKind]match.Locator{
	domain.GeneratorDiamond: {X: 0, Y: 100, Z: 40},
	domain.GeneratorEmerald: {X: 0, Y: 100, Z: 0},
}

// LocateGenerator finds a generator whose label is currently loaded
func (p *Pump) LocateGenerator(kind domain.GeneratorKind) (match.Locator, bool) {
	if _, ok := p.labels[kind]; !ok {
		return match.Locator{}, false
	}
	loc, ok := generatorLocators[kind]
	return loc, ok
}

// GeneratorCountdown reads the label at loc
func (p *Pump) GeneratorCountdown(loc match.Locator) (int, bool) {
	for kind, l := range generatorLocators {
		if l == loc {
			secs, ok := p.labels[kind]
			return secs, ok
		}
	}
	return 0, false
}
