package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// Exchange is one completed query/response pair in a session's history.
type Exchange struct {
	Query    string
	Response string
	At       time.Time
}

// Session holds the rolling conversation history for one session ID.
// Sessions live for the process lifetime and are never removed.
type Session struct {
	ID        SessionID
	Exchanges []Exchange
	CreatedAt time.Time
}
