// Package model contains domain records shared between the engine layers.
package model

import "time"

// DecisionType distinguishes votes from elections.
type DecisionType string

// Decision kinds.
const (
	DecisionVote     DecisionType = "vote"
	DecisionElection DecisionType = "election"
)

// Valid reports whether t is a known decision kind.
func (t DecisionType) Valid() bool {
	return t == DecisionVote || t == DecisionElection
}

// Result is the terminal outcome of a decision. The zero value means the
// host has not published a result yet.
type Result string

// Terminal results.
const (
	ResultNone    Result = ""
	ResultPassed  Result = "passed"
	ResultFailed  Result = "failed"
	ResultTied    Result = "tied"
	ResultElected Result = "elected"
)

// Valid reports whether r is empty or a known result.
func (r Result) Valid() bool {
	switch r {
	case ResultNone, ResultPassed, ResultFailed, ResultTied, ResultElected:
		return true
	default:
		return false
	}
}

// Tally holds vote counts for a single snapshot. Counts are never negative.
type Tally struct {
	Support int `json:"support"`
	Oppose  int `json:"oppose"`
	Abstain int `json:"abstain"`
}

// Total returns the number of votes cast in the tally.
func (t Tally) Total() int {
	return t.Support + t.Oppose + t.Abstain
}

// Snapshot is a historical tally captured by the host at At.
type Snapshot struct {
	Tally Tally     `json:"tally"`
	At    time.Time `json:"at"`
}

// Decision is a vote or election tracked for live status.
type Decision struct {
	ID     string       `json:"id"`
	Type   DecisionType `json:"type"`
	EndsAt time.Time    `json:"ends_at"`
	Result Result       `json:"result,omitempty"`

	// Tally is the current count (votes only).
	Tally Tally `json:"tally"`

	// Previous holds earlier snapshots ordered oldest first.
	Previous []Snapshot `json:"previous,omitempty"`

	// Eligible and Voted feed turnout; zero Eligible disables it.
	Eligible int `json:"eligible,omitempty"`
	Voted    int `json:"voted,omitempty"`
}

// LatestSnapshot returns the most recent previous snapshot, if any.
func (d *Decision) LatestSnapshot() (Snapshot, bool) {
	if len(d.Previous) == 0 {
		return Snapshot{}, false
	}
	return d.Previous[len(d.Previous)-1], true
}

// History returns the previous tallies oldest first.
func (d *Decision) History() []Tally {
	out := make([]Tally, len(d.Previous))
	for i, s := range d.Previous {
		out[i] = s.Tally
	}
	return out
}

// Update is one delivery of a decision list, either from a poll or a push.
type Update struct {
	ID         string     `json:"id"`        // unique id for idempotency
	Decisions  []Decision `json:"decisions"` // full list as seen by the host
	ReceivedAt time.Time  `json:"received_at"`
}
