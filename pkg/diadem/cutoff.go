package diadem

import "time"

// Cutoff is the predicate that aborts a search early. It is polled once per
// solver iteration, never preemptively: a compilation in flight always runs
// to completion. A firing cutoff is an expected termination path, not an
// error; the incumbent found so far is still returned with IsExact=false.
type Cutoff interface {
	// MustStop reports whether the search should stop now.
	MustStop() bool
}

// NoCutoff never stops the search: the engine runs until the fringe is
// exhausted and the returned solution is proven optimal.
type NoCutoff struct{}

// MustStop always returns false.
func (NoCutoff) MustStop() bool { return false }

// TimeBudget stops the search once a wall-clock budget has elapsed. The
// clock starts when the budget is created.
type TimeBudget struct {
	deadline time.Time
}

// NewTimeBudget creates a cutoff that fires after d has elapsed.
func NewTimeBudget(d time.Duration) *TimeBudget {
	return &TimeBudget{deadline: time.Now().Add(d)}
}

// MustStop reports whether the budget has elapsed.
func (t *TimeBudget) MustStop() bool {
	return !time.Now().Before(t.deadline)
}
