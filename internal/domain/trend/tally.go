package trend

import (
	"math"

	"github.com/okian/agora/internal/domain/model"
)

// DefaultQuorum is the turnout percentage required when none is configured.
const DefaultQuorum = 50

// percent returns round(100*part/total), or 0 when total is not positive.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// SupportPercentage returns the rounded support share of t.
func SupportPercentage(t model.Tally) int {
	return percent(t.Support, t.Total())
}

// Turnout returns round(100*voted/total); 0 when total is 0.
func Turnout(voted, total int) int {
	return percent(voted, total)
}

// IsQuorumReached reports whether turnout meets quorum.
func IsQuorumReached(turnout, quorum int) bool {
	return turnout >= quorum
}

// Shares is the rounded percentage split of a tally.
type Shares struct {
	Support int `json:"support"`
	Oppose  int `json:"oppose"`
	Abstain int `json:"abstain"`
}

// Breakdown returns the percentage split of t. All zero when t is empty.
func Breakdown(t model.Tally) Shares {
	total := t.Total()
	return Shares{
		Support: percent(t.Support, total),
		Oppose:  percent(t.Oppose, total),
		Abstain: percent(t.Abstain, total),
	}
}
