package http

import (
	"codesurvey/internal/schemas"
	"codesurvey/internal/survey"
)

// view renders the participant's current page from the stored state alone,
// so reloading never changes phase or trial.
func (s *Server) view(id string, st survey.State) schemas.SessionView {
	v := schemas.SessionView{
		SessionID: id,
		Phase:     st.Phase,
		Nickname:  st.Nickname,
		Completed: len(st.Records),
	}
	switch st.Phase {
	case survey.PhaseInstructions:
		v.Instructions = survey.Instructions(s.Survey.Catalog().TrialCount())
	case survey.PhaseDone:
		v.Records = st.Records
	}
	if t, ok := st.Current(); ok {
		v.Trial = &schemas.TrialView{
			Number:   st.Index + 1,
			Total:    len(st.Trials),
			Group:    t.Group,
			Label:    t.Label,
			ImageURL: "/images/" + t.Image,
			Revealed: st.Phase == survey.PhaseAnswering,
		}
	}
	return v
}
