package lifecycle

// Tracker derives match start, rejoin and leave transitions from chat lines
type Tracker struct {
	conn    ConnectionState
	inMatch bool
}

// NewTracker creates a tracker that only consumes lines while conn is connected
func NewTracker(conn ConnectionState) *Tracker {
	return &Tracker{conn: conn}
}

// HandleLine matches a cleaned chat line against the start and rejoin
// phrase families. Start phrases take priority. Non-matching lines are
// ignored.
func (t *Tracker) HandleLine(line string) (Signal, bool) {
	if !t.conn.Connected() {
		return "", false
	}

	for _, re := range matchStartRegexes {
		if re.MatchString(line) {
			t.inMatch = true
			return SignalMatchStarted, true
		}
	}

	if rejoinRegex.MatchString(line) {
		t.inMatch = true
		return SignalMatchRejoined, true
	}

	return "", false
}

// OnScreenTransition is called when a "loading a new world" screen is shown
func (t *Tracker) OnScreenTransition() (Signal, bool) {
	return t.leave()
}

// OnDisconnect is called when the client drops off the platform
func (t *Tracker) OnDisconnect() (Signal, bool) {
	return t.leave()
}

func (t *Tracker) leave() (Signal, bool) {
	if !t.inMatch {
		return "", false
	}
	t.inMatch = false
	return SignalMatchLeft, true
}

// InMatch reports whether a start or rejoin was seen since the last leave
func (t *Tracker) InMatch() bool {
	return t.inMatch
}
