// Package survey implements the participant session: trial generation,
// answer scoring and the transition function that moves a session from the
// nickname prompt to the final result log.
package survey

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"codesurvey/internal/catalog"
)

// Controller applies participant events to session states. It holds no
// per-session data, so one Controller serves every session.
type Controller struct {
	catalog *catalog.Catalog
	clock   Clock

	mu   sync.Mutex // guards rand
	rand *rand.Rand
}

// NewController builds a controller. A nil clock means the wall clock.
func NewController(c *catalog.Catalog, r *rand.Rand, clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock
	}
	return &Controller{catalog: c, rand: r, clock: clock}
}

// Catalog returns the group catalog trials are drawn from.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Apply returns the state that follows st after ev. When an answer is
// submitted the new record is returned as well. On error st is returned
// unchanged. st itself is never modified.
func (c *Controller) Apply(st State, ev Event) (State, *Record, error) {
	switch ev.Type {
	case EventSubmitNickname:
		return c.submitNickname(st, ev.Nickname)
	case EventAcknowledge:
		return c.acknowledge(st)
	case EventReveal:
		return c.reveal(st)
	case EventSubmitAnswer:
		return c.submitAnswer(st, ev.Answer)
	default:
		return st, nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

func unexpected(st State, ev EventType) error {
	return fmt.Errorf("%w: %s during %s", ErrUnexpectedEvent, ev, st.Phase)
}

func (c *Controller) submitNickname(st State, nickname string) (State, *Record, error) {
	if st.Phase != PhaseStart {
		return st, nil, unexpected(st, EventSubmitNickname)
	}
	name := strings.TrimSpace(nickname)
	if name == "" {
		return st, nil, ErrEmptyNickname
	}
	next := st
	next.Nickname = name
	next.Phase = PhaseInstructions
	return next, nil, nil
}

func (c *Controller) acknowledge(st State) (State, *Record, error) {
	if st.Phase != PhaseInstructions {
		return st, nil, unexpected(st, EventAcknowledge)
	}
	c.mu.Lock()
	trials := GenerateTrials(c.catalog, c.rand)
	c.mu.Unlock()

	next := st
	next.Trials = trials
	next.Index = 0
	next.Phase = PhaseWaiting
	return next, nil, nil
}

func (c *Controller) reveal(st State) (State, *Record, error) {
	if st.Phase != PhaseWaiting {
		return st, nil, unexpected(st, EventReveal)
	}
	now := c.clock.Now()
	next := st
	next.RevealedAt = &now
	next.Phase = PhaseAnswering
	return next, nil, nil
}

func (c *Controller) submitAnswer(st State, answer string) (State, *Record, error) {
	if st.Phase != PhaseAnswering || st.RevealedAt == nil {
		return st, nil, unexpected(st, EventSubmitAnswer)
	}
	trial, ok := st.Current()
	if !ok {
		return st, nil, fmt.Errorf("%w: no trial at index %d", ErrUnexpectedEvent, st.Index)
	}
	now := c.clock.Now()
	rec := Record{
		Username:   st.Nickname,
		Trial:      st.Index + 1,
		Group:      trial.Group,
		Color:      trial.Color,
		Distortion: trial.Distortion,
		TimeSec:    Elapsed(*st.RevealedAt, now),
		Answer:     strings.TrimSpace(answer),
		Timestamp:  now,
		Correct:    Score(answer, trial.Expected),
	}

	next := st
	next.Records = append(slices.Clone(st.Records), rec)
	next.RevealedAt = nil
	next.Index = st.Index + 1
	next.Phase = PhaseWaiting
	if next.Index >= len(st.Trials) {
		next.Phase = PhaseDone
	}
	return next, &rec, nil
}

// Elapsed is the reveal to submit interval in seconds, rounded to the
// millisecond and never negative.
func Elapsed(revealed, submitted time.Time) float64 {
	d := submitted.Sub(revealed)
	if d < 0 {
		return 0
	}
	return math.Round(d.Seconds()*1000) / 1000
}
