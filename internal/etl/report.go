package etl

import (
	"time"
)

// Outcome records what happened to one entity in one phase.
type Outcome struct {
	Entity string
	Rows   int
	Object string
	Err    error
	// Skipped is set when there was nothing to do, e.g. an empty endpoint.
	Skipped bool
}

// Report collects the outcomes of one phase of a run.
type Report struct {
	Phase    string
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// Failed returns the outcomes that carry an error.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome for entity, if any.
func (r Report) Outcome(entity string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Entity == entity {
			return o, true
		}
	}
	return Outcome{}, false
}
