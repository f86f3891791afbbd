// Package scoring ranks feed content for a viewer with a weighted
// multi-factor relevance score.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/okian/agora/internal/domain/model"
)

const (
	maxScoreValue = 100

	freshnessHalfLife    = 24 * time.Hour
	freshnessUnknown     = 0.5
	trendingDecades      = 2
	qualityDecades       = 3
	diversityDecayFactor = 0.9
)

// Weight keys as used in configuration maps.
const (
	KeyTrending       = "trending"
	KeyTopicRelevance = "topic_relevance"
	KeyFreshness      = "freshness"
	KeyQuality        = "quality"
	KeyUserContent    = "user_content"
)

// Weights sets the contribution of each factor. They are rescaled to sum
// to 100 when scoring.
type Weights struct {
	Trending       float64 `json:"trending"`
	TopicRelevance float64 `json:"topic_relevance"`
	Freshness      float64 `json:"freshness"`
	Quality        float64 `json:"quality"`
	UserContent    float64 `json:"user_content"`
}

// DefaultWeights returns the stock factor weights.
func DefaultWeights() Weights {
	return Weights{
		Trending:       35,
		TopicRelevance: 25,
		Freshness:      20,
		Quality:        15,
		UserContent:    5,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Trending + w.TopicRelevance + w.Freshness + w.Quality + w.UserContent
}

// Breakdown holds each factor normalized to [0,1].
type Breakdown struct {
	Trending       float64 `json:"trending"`
	TopicRelevance float64 `json:"topic_relevance"`
	Freshness      float64 `json:"freshness"`
	Quality        float64 `json:"quality"`
	UserContent    float64 `json:"user_content"`
}

// ScoredContent is an item with its total score in [0,100].
type ScoredContent struct {
	Content   model.ContentItem `json:"content"`
	Score     float64           `json:"score"`
	Breakdown Breakdown         `json:"breakdown"`
}

// Scorer computes relevance scores. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	weights Weights
	now     func() time.Time
}

// New creates a Scorer with configuration options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights: DefaultWeights(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes the relevance of item for uctx.
func (s *Scorer) Score(item model.ContentItem, uctx model.UserContext) ScoredContent {
	return s.score(item, &uctx, s.now())
}

func (s *Scorer) score(item model.ContentItem, uctx *model.UserContext, now time.Time) ScoredContent {
	b := Breakdown{
		Trending:       TrendingScore(item.RecentEngagementVelocity),
		TopicRelevance: TopicScore(&item, uctx),
		Freshness:      FreshnessScore(item.CreatedAt, now),
		Quality:        QualityScore(item.EngagementScore),
	}
	if uctx.IsOwn(&item) {
		b.UserContent = 1
	}

	w := s.weights
	total := w.Trending*b.Trending +
		w.TopicRelevance*b.TopicRelevance +
		w.Freshness*b.Freshness +
		w.Quality*b.Quality +
		w.UserContent*b.UserContent
	if sum := w.Sum(); sum > 0 {
		total = total * maxScoreValue / sum
	}

	return ScoredContent{
		Content:   item,
		Score:     math.Max(0, math.Min(maxScoreValue, total)),
		Breakdown: b,
	}
}

// ScoreAndSort scores every item and orders them by descending score.
// Equal scores keep input order.
func (s *Scorer) ScoreAndSort(items []model.ContentItem, uctx model.UserContext) []ScoredContent {
	now := s.now()
	out := make([]ScoredContent, len(items))
	for i := range items {
		out[i] = s.score(items[i], &uctx, now)
	}
	sortByScore(out)
	return out
}

// TopScored returns at most n of the highest scoring items.
func (s *Scorer) TopScored(items []model.ContentItem, uctx model.UserContext, n int) []ScoredContent {
	if n <= 0 {
		return []ScoredContent{}
	}
	sorted := s.ScoreAndSort(items, uctx)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// ApplyDiversityPenalty discounts repeated content types. The k-th item of
// a type (counting from zero) in the given order is scaled by 0.9^k, and
// the result is re-sorted. No item is dropped and the input is not
// modified.
func ApplyDiversityPenalty(scored []ScoredContent) []ScoredContent {
	out := make([]ScoredContent, len(scored))
	seen := make(map[model.ContentType]int)
	for i, sc := range scored {
		k := seen[sc.Content.Type]
		seen[sc.Content.Type] = k + 1
		sc.Score *= math.Pow(diversityDecayFactor, float64(k))
		out[i] = sc
	}
	sortByScore(out)
	return out
}

func sortByScore(scored []ScoredContent) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}

// TrendingScore compresses engagement velocity logarithmically.
func TrendingScore(velocity float64) float64 {
	if velocity <= 0 {
		return 0
	}
	return math.Min(1, math.Log10(velocity+1)/trendingDecades)
}

// QualityScore compresses total engagement logarithmically.
func QualityScore(engagement float64) float64 {
	if engagement <= 0 {
		return 0
	}
	return math.Min(1, math.Log10(engagement+1)/qualityDecades)
}

// FreshnessScore decays with a 24 hour half-life. Unknown creation time
// scores 0.5 and future timestamps score 1.
func FreshnessScore(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return freshnessUnknown
	}
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age.Hours()/freshnessHalfLife.Hours())
}

// TopicScore averages how focused and how broad the topic match is. Both
// sides are treated as sets, so repeated topics count once.
func TopicScore(item *model.ContentItem, uctx *model.UserContext) float64 {
	if len(item.Topics) == 0 || len(uctx.FollowedTopics) == 0 {
		return 0
	}
	matches := float64(len(uctx.MatchingTopics(item)))
	if matches == 0 {
		return 0
	}
	focus := matches / float64(model.DistinctTopics(item.Topics))
	breadth := matches / float64(model.DistinctTopics(uctx.FollowedTopics))
	return (focus + breadth) / 2
}
