package lifecycle

// MatchPresence reports whether the client is currently inside a match
type MatchPresence interface {
	InMatch() bool
}

// TransferArbiter recognises the "sent to an in-progress match" sequence and
// its failure messages
type TransferArbiter struct {
	conn     ConnectionState
	presence MatchPresence
}

// NewTransferArbiter creates an arbiter gated on conn and presence
func NewTransferArbiter(conn ConnectionState, presence MatchPresence) *TransferArbiter {
	return &TransferArbiter{conn: conn, presence: presence}
}

// HandleLine matches a cleaned chat line. Failure phrases only cancel a
// transfer while in a match.
func (a *TransferArbiter) HandleLine(line string) (Signal, bool) {
	if !a.conn.Connected() {
		return "", false
	}

	if transferRegex.MatchString(line) {
		return SignalJoinedInProgressMatch, true
	}

	if !a.presence.InMatch() {
		return "", false
	}
	for _, re := range transferFailureRegexes {
		if re.MatchString(line) {
			return SignalTransferCancelled, true
		}
	}

	return "", false
}

// TransferTarget extracts the destination server name from a transfer line
func TransferTarget(line string) (string, bool) {
	match := transferRegex.FindStringSubmatch(line)
	if match == nil {
		return "", false
	}
	return match[1], true
}
