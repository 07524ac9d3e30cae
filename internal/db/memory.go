package db

import (
	"context"
	"slices"
	"sync"
	"time"

	"codesurvey/internal/survey"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on
// restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = s.CreatedAt
	s.State = cloneState(s.State)
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.State = cloneState(s.State)
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, prev, next survey.State, rec *survey.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if s.State.Phase != prev.Phase || s.State.Index != prev.Index {
		return ErrConflict
	}
	records := s.State.Records
	if rec != nil {
		records = append(slices.Clone(records), *rec)
	}
	s.State = cloneState(next)
	s.State.Records = records
	s.UpdatedAt = time.Now()
	m.sessions[id] = s
	return nil
}

func cloneState(st survey.State) survey.State {
	st.Trials = slices.Clone(st.Trials)
	st.Records = slices.Clone(st.Records)
	if st.RevealedAt != nil {
		t := *st.RevealedAt
		st.RevealedAt = &t
	}
	return st
}
