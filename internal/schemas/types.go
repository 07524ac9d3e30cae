package schemas

import (
	"time"

	"codesurvey/internal/survey"
)

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

type EventRequest struct {
	Type     survey.EventType `json:"type"`
	Nickname string           `json:"nickname,omitempty"`
	Answer   string           `json:"answer,omitempty"`
}

func (r EventRequest) Event() survey.Event {
	return survey.Event{Type: r.Type, Nickname: r.Nickname, Answer: r.Answer}
}

// TrialView is what the participant sees for the current trial. Expected
// codes are never sent.
type TrialView struct {
	Number   int    `json:"number"`
	Total    int    `json:"total"`
	Group    string `json:"group"`
	Label    string `json:"label"`
	ImageURL string `json:"image_url"`
	Revealed bool   `json:"revealed"`
}

type SessionView struct {
	SessionID    string          `json:"session_id"`
	Phase        survey.Phase    `json:"phase"`
	Nickname     string          `json:"nickname,omitempty"`
	Instructions []string        `json:"instructions,omitempty"`
	Trial        *TrialView      `json:"trial,omitempty"`
	Completed    int             `json:"completed"`
	Records      []survey.Record `json:"records,omitempty"`
}

type EventResponse struct {
	Session  SessionView    `json:"session"`
	Record   *survey.Record `json:"record,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ResponsePayload is the body forwarded to the external persistence
// endpoint, one per answered trial.
type ResponsePayload struct {
	SessionID  string    `json:"session_id"`
	Username   string    `json:"username"`
	Trial      int       `json:"trial"`
	Color      string    `json:"color"`
	Distortion string    `json:"distortion"`
	TimeSec    float64   `json:"time_sec"`
	Answer     string    `json:"answer"`
	Timestamp  time.Time `json:"timestamp"`
	Correct    bool      `json:"correct"`
}

func NewResponsePayload(sessionID string, rec survey.Record) ResponsePayload {
	return ResponsePayload{
		SessionID:  sessionID,
		Username:   rec.Username,
		Trial:      rec.Trial,
		Color:      rec.Color,
		Distortion: rec.Distortion,
		TimeSec:    rec.TimeSec,
		Answer:     rec.Answer,
		Timestamp:  rec.Timestamp,
		Correct:    rec.Correct,
	}
}
