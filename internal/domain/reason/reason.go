// Package reason explains why a content item appears in a feed.
package reason

import "github.com/okian/agora/internal/domain/model"

// Category is a human-facing reason kind.
type Category string

// Reason categories.
const (
	YourContent  Category = "your_content"
	Trending     Category = "trending"
	TopicMatch   Category = "topic_match"
	SimilarGroup Category = "similar_group"
)

// Base priorities. Topic matches add TopicMatchStep per distinct matched
// topic, up to MaxTopicMatchPriority.
const (
	PriorityYourContent  = 100
	PriorityTrending     = 80
	PriorityTopicMatch   = 60
	TopicMatchStep       = 5
	PrioritySimilarGroup = 40

	// MaxTopicMatchPriority keeps topic matches below own content.
	MaxTopicMatchPriority = PriorityYourContent - 1

	// TrendingVelocity is the velocity an item must exceed to trend.
	TrendingVelocity = 10
)

var labels = map[Category]string{
	YourContent:  "Your content",
	Trending:     "Trending",
	TopicMatch:   "Matches a topic you follow",
	SimilarGroup: "From a group similar to yours",
}

// Label returns a display label for the category.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Reason is the winning explanation for an item.
type Reason struct {
	Category Category `json:"category"`
	// Context carries the first matched topic for topic matches.
	Context  string `json:"context,omitempty"`
	Priority int    `json:"priority"`
}

// Fallback is used when no candidate qualifies.
var Fallback = Reason{Category: Trending, Priority: 0}

// Attribute picks the highest priority reason for item. Candidates are
// considered in priority order so an earlier candidate wins ties.
func Attribute(item model.ContentItem, uctx model.UserContext) Reason {
	best := Fallback
	consider := func(r Reason) {
		if r.Priority > best.Priority {
			best = r
		}
	}

	if uctx.IsOwn(&item) {
		consider(Reason{Category: YourContent, Priority: PriorityYourContent})
	}
	if item.RecentEngagementVelocity > TrendingVelocity {
		consider(Reason{Category: Trending, Priority: PriorityTrending})
	}
	if matched := uctx.MatchingTopics(&item); len(matched) > 0 {
		consider(Reason{
			Category: TopicMatch,
			Context:  matched[0],
			Priority: min(PriorityTopicMatch+TopicMatchStep*len(matched), MaxTopicMatchPriority),
		})
	}
	if item.GroupID != "" && !uctx.IsSubscribed(item.GroupID) {
		consider(Reason{Category: SimilarGroup, Priority: PrioritySimilarGroup})
	}
	return best
}

// Attributed pairs an item with its reason.
type Attributed struct {
	Content model.ContentItem `json:"content"`
	Reason  Reason            `json:"reason"`
}

// AttributeAll attributes every item, preserving order.
func AttributeAll(items []model.ContentItem, uctx model.UserContext) []Attributed {
	out := make([]Attributed, len(items))
	for i := range items {
		out[i] = Attributed{Content: items[i], Reason: Attribute(items[i], uctx)}
	}
	return out
}

// FilterByReasonStrength keeps items whose reason priority is at least
// minPriority, preserving order.
func FilterByReasonStrength(items []model.ContentItem, uctx model.UserContext, minPriority int) []model.ContentItem {
	out := make([]model.ContentItem, 0, len(items))
	for i := range items {
		if Attribute(items[i], uctx).Priority >= minPriority {
			out = append(out, items[i])
		}
	}
	return out
}
