package survey

import (
	"time"
)

// Phase is the participant's position in the survey.
type Phase string

const (
	PhaseStart        Phase = "start"
	PhaseInstructions Phase = "instructions"
	PhaseWaiting      Phase = "waiting"   // image shown, timer not started
	PhaseAnswering    Phase = "answering" // timer running, answer box shown
	PhaseDone         Phase = "done"
)

func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseStart, PhaseInstructions, PhaseWaiting, PhaseAnswering, PhaseDone:
		return true
	default:
		return false
	}
}

// InTrial reports whether a trial image is on screen.
func (p Phase) InTrial() bool {
	return p == PhaseWaiting || p == PhaseAnswering
}

// Trial is one image presentation. Expected holds the valid codes of the
// trial's own group.
type Trial struct {
	Group      string   `json:"group"`
	Label      string   `json:"label"`
	Color      string   `json:"color"`
	Distortion string   `json:"distortion"`
	Image      string   `json:"image"`
	Expected   []string `json:"expected"`
}

// Record is the logged outcome of one trial.
type Record struct {
	Username   string    `json:"username" db:"username"`
	Trial      int       `json:"trial" db:"trial"`
	Group      string    `json:"group" db:"group_tag"`
	Color      string    `json:"color" db:"color"`
	Distortion string    `json:"distortion" db:"distortion"`
	TimeSec    float64   `json:"time_sec" db:"time_sec"`
	Answer     string    `json:"answer" db:"answer"`
	Timestamp  time.Time `json:"timestamp" db:"submitted_at"`
	Correct    bool      `json:"correct" db:"correct"`
}

// State is everything needed to resume a session. It is passed into and
// returned from Controller.Apply; nothing else mutates it.
type State struct {
	Phase      Phase      `json:"phase"`
	Nickname   string     `json:"nickname,omitempty"`
	Index      int        `json:"index"`
	Trials     []Trial    `json:"trials,omitempty"`
	RevealedAt *time.Time `json:"revealed_at,omitempty"`
	Records    []Record   `json:"records,omitempty"`
}

// NewState returns the state of a session that has not started.
func NewState() State {
	return State{Phase: PhaseStart}
}

// Current returns the trial on screen, if any.
func (s State) Current() (Trial, bool) {
	if !s.Phase.InTrial() || s.Index < 0 || s.Index >= len(s.Trials) {
		return Trial{}, false
	}
	return s.Trials[s.Index], true
}

type EventType string

const (
	EventSubmitNickname EventType = "submit_nickname"
	EventAcknowledge    EventType = "acknowledge"
	EventReveal         EventType = "reveal"
	EventSubmitAnswer   EventType = "submit_answer"
)

// Event is a participant action.
type Event struct {
	Type     EventType `json:"type"`
	Nickname string    `json:"nickname,omitempty"`
	Answer   string    `json:"answer,omitempty"`
}
