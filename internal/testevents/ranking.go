package testevents

import (
	"context"
	"fmt"

	"github.com/okian/agora/pkg/logger"
)

// rankFeed posts generated content to /feed/rank and returns the feed.
func rankFeed(ctx context.Context, cfg *Config, stats *Stats) (*feedResponse, error) {
	if cfg.FeedItems <= 0 {
		return &feedResponse{}, nil
	}
	logger.Get().Info(ctx, "ranking feed", logger.Int("items", cfg.FeedItems))

	items, user := generateFeed(cfg.FeedItems)
	req := feedRequest{Items: items, User: user, Limit: cfg.FeedItems, Diversity: true}

	var feed feedResponse
	client := newHTTPClient(cfg.Timeout)
	if err := client.postJSON(ctx, cfg.BaseURL+"/feed/rank", req, &feed); err != nil {
		return nil, fmt.Errorf("failed to rank feed: %w", err)
	}

	stats.FeedItemsRanked = len(feed.Items)
	stats.FeedItemsFiltered = feed.Filtered
	return &feed, nil
}

// fetchStats reads GET /stats.
func fetchStats(ctx context.Context, cfg *Config) (*serviceStats, error) {
	var st serviceStats
	if err := newHTTPClient(cfg.Timeout).getJSON(ctx, cfg.BaseURL+"/stats", &st); err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	return &st, nil
}
