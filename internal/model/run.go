package model

import "time"

// Run summarizes one invocation across all suites.
type Run struct {
	ID           string
	ChainID      uint64
	BlockNumber  uint64
	MetaRegistry string
	StartedAt    time.Time
	FinishedAt   time.Time
	Totals       map[Outcome]int
}

// Count adds one result to the totals.
func (r *Run) Count(outcome Outcome) {
	if r.Totals == nil {
		r.Totals = make(map[Outcome]int)
	}
	r.Totals[outcome]++
}

// Failed reports whether any case failed or errored.
func (r Run) Failed() bool {
	return r.Totals[OutcomeFail] > 0 || r.Totals[OutcomeError] > 0
}
