package interview

import (
	"errors"
	"time"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("no lecture summary found")
	ErrService       = errors.New("completion service error")
	ErrPersistence   = errors.New("persistence error")
)

// SummaryRecord is a stored lecture digest. Records are immutable once stored.
type SummaryRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

// TurnLogEntry captures one question/answer/follow-up triple.
type TurnLogEntry struct {
	SessionID string    `json:"sessionId"`
	SourceID  string    `json:"sourceId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Followup  string    `json:"followup"`
	LoggedAt  time.Time `json:"loggedAt"`
}
