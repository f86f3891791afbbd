package model

import "time"

// ContentType enumerates feed item kinds.
type ContentType string

// Feed item kinds.
const (
	ContentPost      ContentType = "post"
	ContentAmendment ContentType = "amendment"
	ContentVote      ContentType = "vote"
	ContentElection  ContentType = "election"
	ContentGroup     ContentType = "group"
	ContentEvent     ContentType = "event"
)

// ContentItem is a candidate for the discovery feed.
type ContentItem struct {
	ID       string      `json:"id"`
	Type     ContentType `json:"type"`
	AuthorID string      `json:"author_id,omitempty"`
	GroupID  string      `json:"group_id,omitempty"`
	Topics   []string    `json:"topics,omitempty"`

	EngagementScore          float64 `json:"engagement_score"`
	RecentEngagementVelocity float64 `json:"recent_engagement_velocity"`

	// CreatedAt is zero when the host does not know the creation time.
	CreatedAt     time.Time `json:"created_at"`
	IsUserContent bool      `json:"is_user_content,omitempty"`
}

// UserContext describes the viewer a feed is ranked for.
type UserContext struct {
	UserID             string   `json:"user_id"`
	SubscribedGroupIDs []string `json:"subscribed_group_ids,omitempty"`
	FollowedTopics     []string `json:"followed_topics,omitempty"`
	RecentInteractions []string `json:"recent_interactions,omitempty"`
}

// IsOwn reports whether item was authored by the viewer.
func (u *UserContext) IsOwn(item *ContentItem) bool {
	if item.IsUserContent {
		return true
	}
	return item.AuthorID != "" && item.AuthorID == u.UserID
}

// IsSubscribed reports whether the viewer subscribes to groupID.
func (u *UserContext) IsSubscribed(groupID string) bool {
	for _, id := range u.SubscribedGroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// MatchingTopics returns the distinct item topics the viewer follows, in
// order of first appearance on the item.
func (u *UserContext) MatchingTopics(item *ContentItem) []string {
	if len(item.Topics) == 0 || len(u.FollowedTopics) == 0 {
		return nil
	}
	followed := make(map[string]struct{}, len(u.FollowedTopics))
	for _, t := range u.FollowedTopics {
		followed[t] = struct{}{}
	}
	var out []string
	for _, t := range item.Topics {
		if _, ok := followed[t]; ok {
			out = append(out, t)
			delete(followed, t)
		}
	}
	return out
}

// DistinctTopics counts topics once each.
func DistinctTopics(topics []string) int {
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		seen[t] = struct{}{}
	}
	return len(seen)
}
