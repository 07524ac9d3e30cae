package db

import (
	"context"
	"errors"
	"time"

	"codesurvey/internal/survey"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrConflict means the session moved on since it was read, e.g. the
	// same answer was submitted twice concurrently.
	ErrConflict = errors.New("session was modified concurrently")
)

// Session is a participant session as persisted between requests.
type Session struct {
	ID        string
	TokenHash string
	State     survey.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists sessions for their lifetime.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// Save replaces the state read as prev with next and appends rec, if
	// any, atomically.
	Save(ctx context.Context, id string, prev, next survey.State, rec *survey.Record) error
	Ping(ctx context.Context) error
}

type sessionRow struct {
	ID         string     `db:"id"`
	TokenHash  string     `db:"token_hash"`
	Phase      string     `db:"phase"`
	Nickname   string     `db:"nickname"`
	TrialIndex int        `db:"trial_index"`
	Trials     []byte     `db:"trials"`
	RevealedAt *time.Time `db:"revealed_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}
