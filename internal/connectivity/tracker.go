package connectivity

// Tracker tracks whether the client is connected to the tracked platform
type Tracker struct {
	connected bool
}

// NewTracker creates a disconnected tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// OnWorldJoin records a world join. Joining a world on any other platform
// counts as disconnected.
func (t *Tracker) OnWorldJoin(trackedPlatform bool) {
	t.connected = trackedPlatform
}

// OnWorldUnload clears the flag unconditionally
func (t *Tracker) OnWorldUnload() {
	t.connected = false
}

// Connected reports whether text from the tracked platform should be consumed
func (t *Tracker) Connected() bool {
	return t.connected
}
