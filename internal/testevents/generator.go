package testevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/pkg/logger"
)

const (
	randomFloatDivisor = 1000000
	shiftKindDivisor   = 4
	contentTypeCount   = 6
	maxDeadlineMinutes = 180
	electionEvery      = 5
	baseTallyMax       = 500
	turnoutSlack       = 200
	historyStep        = time.Minute
)

// Tally shift profiles.
const (
	caseSteady = iota
	caseSupportSurge
	caseOpposeSurge
	caseSwing
)

var (
	contentTypes = [contentTypeCount]model.ContentType{
		model.ContentPost, model.ContentAmendment, model.ContentVote,
		model.ContentElection, model.ContentGroup, model.ContentEvent,
	}
	topics = []string{"housing", "transit", "budget", "parks", "schools", "climate", "zoning", "safety"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateUpdates builds cfg.Rounds full decision lists. Each round moves
// every tally from the previous round and records it as history, then
// cfg.Duplicates of the updates are appended again with their original id.
func generateUpdates(ctx context.Context, cfg *Config, stats *Stats) ([]UpdateRequest, error) {
	logger.Get().Info(ctx, "generating updates",
		logger.Int("decisions", cfg.Decisions),
		logger.Int("rounds", cfg.Rounds))

	if cfg.Decisions <= 0 || cfg.Rounds <= 0 {
		return nil, fmt.Errorf("decisions and rounds must be positive")
	}

	now := time.Now().UTC()
	current := make([]model.Decision, cfg.Decisions)
	for i := range current {
		current[i] = generateDecision(i, now)
	}

	updates := make([]UpdateRequest, 0, cfg.Rounds+cfg.Duplicates)
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during update generation: %w", err)
		}
		if round > 0 {
			at := now.Add(time.Duration(round) * historyStep)
			for i := range current {
				advanceDecision(&current[i], at)
			}
		}
		updates = append(updates, UpdateRequest{
			ID:        "update_" + strconv.Itoa(round) + "_" + uuid.NewString(),
			Decisions: cloneDecisions(current),
		})
	}
	for i := 0; i < cfg.Duplicates; i++ {
		updates = append(updates, updates[randomInt(cfg.Rounds)])
	}

	stats.UpdatesGenerated = len(updates)
	logger.Get().Info(ctx, "generated updates successfully", logger.Int("count", len(updates)))
	return updates, nil
}

// generateDecision creates a decision with a random deadline in the next
// three hours and a random opening tally.
func generateDecision(index int, now time.Time) model.Decision {
	d := model.Decision{
		ID:     uuid.NewString(),
		Type:   model.DecisionVote,
		EndsAt: now.Add(time.Duration(1+randomInt(maxDeadlineMinutes)) * time.Minute),
		Tally: model.Tally{
			Support: randomInt(baseTallyMax),
			Oppose:  randomInt(baseTallyMax),
			Abstain: randomInt(baseTallyMax / 10),
		},
	}
	if index%electionEvery == electionEvery-1 {
		d.Type = model.DecisionElection
		d.Tally = model.Tally{}
	}
	d.Voted = d.Tally.Total()
	d.Eligible = d.Voted + randomInt(turnoutSlack)
	return d
}

// advanceDecision records the current tally as history and applies a
// random shift profile.
func advanceDecision(d *model.Decision, at time.Time) {
	if d.Type == model.DecisionElection {
		return
	}
	d.Previous = append(d.Previous, model.Snapshot{Tally: d.Tally, At: at})

	s, o := generateShift()
	d.Tally.Support += s
	d.Tally.Oppose += o
	d.Voted = d.Tally.Total()
	if d.Eligible < d.Voted {
		d.Eligible = d.Voted
	}
}

// generateShift returns the votes added to support and oppose.
func generateShift() (support, oppose int) {
	switch randomInt(shiftKindDivisor) {
	case caseSupportSurge:
		return 20 + randomInt(80), randomInt(5)
	case caseOpposeSurge:
		return randomInt(5), 20 + randomInt(80)
	case caseSwing:
		return randomInt(60), randomInt(60)
	default:
		return randomInt(3), randomInt(3)
	}
}

// generateFeed creates content items and a viewer that follows a few topics
// and authored some of the items.
func generateFeed(n int) ([]model.ContentItem, model.UserContext) {
	now := time.Now().UTC()
	user := model.UserContext{
		UserID:             "viewer_" + uuid.NewString(),
		SubscribedGroupIDs: []string{"group_0", "group_1"},
		FollowedTopics:     []string{topics[randomInt(len(topics))], topics[randomInt(len(topics))]},
	}

	items := make([]model.ContentItem, n)
	for i := range items {
		item := model.ContentItem{
			ID:                       "content_" + strconv.Itoa(i),
			Type:                     contentTypes[randomInt(contentTypeCount)],
			AuthorID:                 "author_" + strconv.Itoa(randomInt(n)),
			GroupID:                  "group_" + strconv.Itoa(randomInt(4)),
			Topics:                   []string{topics[randomInt(len(topics))]},
			EngagementScore:          getRandomFloat() * 2000,
			RecentEngagementVelocity: getRandomFloat() * 40,
			CreatedAt:                now.Add(-time.Duration(getRandomFloat() * float64(72*time.Hour))),
		}
		if randomInt(10) == 0 {
			item.AuthorID = user.UserID
		}
		items[i] = item
	}
	return items, user
}

func cloneDecisions(in []model.Decision) []model.Decision {
	out := make([]model.Decision, len(in))
	for i := range in {
		out[i] = in[i]
		out[i].Previous = append([]model.Snapshot(nil), in[i].Previous...)
	}
	return out
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
