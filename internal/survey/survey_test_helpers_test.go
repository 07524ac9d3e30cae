package survey

import (
	"math/rand/v2"
	"time"

	"codesurvey/internal/catalog"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestController(seed uint64) (*Controller, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return NewController(catalog.Default(), r, clock), clock
}
