package link

// Newkey handshake text tokens (spec §4.3.2).
const (
	TokenNewKey  = "!NEWKEY!"
	TokenNewKey1 = "!NEWKEY1!"
	TokenIAXKey  = "!IAXKEY!"
)

// NewKeyTimeoutMS is NEWKEYTIME from spec §8 scenario 5, in milliseconds.
const NewKeyTimeoutMS = 2000

// ApplyNewKeyToken updates l.NewKey in response to a received handshake
// token, per spec §4.3.2. Unrecognized tokens are ignored (returns false).
func ApplyNewKeyToken(l *Link, token string) bool {
	switch token {
	case TokenNewKey:
		l.NewKey = NewKeyAllowed
		return true
	case TokenNewKey1:
		l.NewKey = NewKeyNotAllowed
		return true
	case TokenIAXKey:
		// Peer indicates IAX-keying is active on its side; no local state
		// transition beyond noting it arrived (handled by caller logging).
		return true
	default:
		return false
	}
}

// NewKeyTimerExpired downgrades a link that answered but never received a
// newkey token within the grace window (spec §4.3.1 "the link downgrades
// to ALLOWED_REDUNDANT").
func NewKeyTimerExpired(l *Link) {
	if l.NewKey == NewKeyAllowed {
		l.NewKey = NewKeyAllowedRedundant
	}
}
