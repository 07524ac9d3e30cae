package report

import (
	"math"

	"codesurvey/internal/catalog"
	"codesurvey/internal/survey"
)

type GroupResult struct {
	Group       string  `json:"group"`
	Label       string  `json:"label"`
	Color       string  `json:"color"`
	Distortion  string  `json:"distortion"`
	Trials      int     `json:"trials"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`
	MeanTimeSec float64 `json:"mean_time_sec"`
}

type Summary struct {
	Username    string        `json:"username"`
	Groups      []GroupResult `json:"groups"`
	Trials      int           `json:"trials"`
	Correct     int           `json:"correct"`
	Accuracy    float64       `json:"accuracy"`
	MeanTimeSec float64       `json:"mean_time_sec"`
}

// Summarize aggregates a response log per condition, in catalog order.
// Groups with no records are omitted.
func Summarize(c *catalog.Catalog, records []survey.Record) Summary {
	type acc struct {
		n, correct int
		time       float64
	}
	byGroup := make(map[string]*acc)
	var s Summary
	var total float64
	for _, r := range records {
		if s.Username == "" {
			s.Username = r.Username
		}
		a, ok := byGroup[r.Group]
		if !ok {
			a = &acc{}
			byGroup[r.Group] = a
		}
		a.n++
		a.time += r.TimeSec
		total += r.TimeSec
		s.Trials++
		if r.Correct {
			a.correct++
			s.Correct++
		}
	}
	for _, g := range c.Groups {
		a, ok := byGroup[g.Tag]
		if !ok {
			continue
		}
		s.Groups = append(s.Groups, GroupResult{
			Group:       g.Tag,
			Label:       g.Label,
			Color:       g.Color,
			Distortion:  g.Distortion,
			Trials:      a.n,
			Correct:     a.correct,
			Accuracy:    ratio(float64(a.correct), a.n),
			MeanTimeSec: ratio(a.time, a.n),
		})
	}
	s.Accuracy = ratio(float64(s.Correct), s.Trials)
	s.MeanTimeSec = ratio(total, s.Trials)
	return s
}

func ratio(v float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(v/float64(n)*1000) / 1000
}
