package identity

import "time"

// Identity is the authenticated principal attached to a live session.
type Identity struct {
	UserID    string
	SessionID string
	Email     string
	Name      string
	Picture   string
}

// Session is a server-side login record. A JWT is only honored while its
// session exists; deleting the session revokes every copy of the token.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is an auth state transition pushed to subscribers.
type Event struct {
	Type     EventType
	Identity Identity
}
