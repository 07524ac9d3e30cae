package survey

import (
	"math/rand/v2"
	"slices"

	"codesurvey/internal/catalog"
)

// GenerateTrials picks catalog.TrialsPerTag distinct images from every group
// and shuffles the combined list.
func GenerateTrials(c *catalog.Catalog, r *rand.Rand) []Trial {
	trials := make([]Trial, 0, c.TrialCount())
	for _, g := range c.Groups {
		picks := r.Perm(g.Images)[:catalog.TrialsPerTag]
		for _, p := range picks {
			trials = append(trials, Trial{
				Group:      g.Tag,
				Label:      g.Label,
				Color:      g.Color,
				Distortion: g.Distortion,
				Image:      g.ImageName(p + 1),
				Expected:   slices.Clone(g.Codes),
			})
		}
	}
	r.Shuffle(len(trials), func(i, j int) {
		trials[i], trials[j] = trials[j], trials[i]
	})
	return trials
}
