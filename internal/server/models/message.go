package models

import (
	"database/sql"
	"time"
)

// Message is a one-time-viewable drop.
//
// Content holds either the JSON-serialized content array or, for secret
// messages, the encrypted envelope record. ViewToken is the literal share
// token for ordinary messages and a one-way digest for secret ones — the
// bearer secret itself is never stored.
type Message struct {
	ID        string
	CreatorID string
	Content   string
	ViewToken string
	Secret    bool
	ExpiresAt time.Time
	ViewedAt  sql.NullTime
	Response  sql.NullString
	CreatedAt time.Time
}

// Viewed reports whether the one permitted view has been consumed.
func (m *Message) Viewed() bool {
	return m.ViewedAt.Valid
}

// Expired reports whether the message is past its deadline at the given
// instant. Expiry is derived, never a stored flag.
func (m *Message) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}
