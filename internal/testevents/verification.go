package testevents

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/pkg/logger"
)

const topFeedEntries = 5

// verifyResults checks that every pushed decision is tracked and that the
// feed came back ordered and explained.
func verifyResults(ctx context.Context, cfg *Config, updates []UpdateRequest, st *serviceStats, feed *feedResponse, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying results")

	stats.DecisionsTracked = len(st.Tracked)
	stats.FlashesActive = st.ActiveFlashes

	if err := verifySubmissionCounts(stats); err != nil {
		return err
	}
	if stats.UpdatesAccepted > 0 && len(updates) > 0 {
		if err := verifyTracked(updates[0].Decisions, st.Tracked); err != nil {
			return err
		}
	}
	if err := verifyFeedOrder(feed); err != nil {
		return err
	}

	displayTopFeed(ctx, feed, cfg.Verbose)
	log.Info(ctx, "result verification completed")
	return nil
}

func verifySubmissionCounts(stats *Stats) error {
	sum := stats.UpdatesAccepted + stats.UpdatesDuplicate + stats.UpdatesRejected + stats.UpdatesFailed
	if sum != stats.UpdatesSubmitted {
		return fmt.Errorf("submission outcomes %d do not add up to %d submitted", sum, stats.UpdatesSubmitted)
	}
	if stats.UpdatesFailed > 0 {
		return fmt.Errorf("%d updates failed", stats.UpdatesFailed)
	}
	return nil
}

// verifyTracked checks that the tracked id set equals the pushed ids.
// Every update carries the same decision ids, so any round will do.
func verifyTracked(pushed []model.Decision, tracked []string) error {
	want := make([]string, len(pushed))
	for i := range pushed {
		want[i] = pushed[i].ID
	}
	sort.Strings(want)

	if len(want) != len(tracked) {
		return fmt.Errorf("tracked %d decisions, pushed %d", len(tracked), len(want))
	}
	for i := range want {
		if want[i] != tracked[i] {
			return fmt.Errorf("decision %s pushed but not tracked", want[i])
		}
	}
	return nil
}

func verifyFeedOrder(feed *feedResponse) error {
	for i, item := range feed.Items {
		if item.Label == "" {
			return fmt.Errorf("feed item %s has no reason label", item.Content.ID)
		}
		if i > 0 && item.Score > feed.Items[i-1].Score {
			return fmt.Errorf("feed item %s scores %.2f above its predecessor %.2f",
				item.Content.ID, item.Score, feed.Items[i-1].Score)
		}
	}
	return nil
}

func displayTopFeed(ctx context.Context, feed *feedResponse, verbose bool) {
	n := len(feed.Items)
	if !verbose {
		n = minInt(n, topFeedEntries)
	}
	for i := 0; i < n; i++ {
		item := feed.Items[i]
		logger.Get().Info(ctx, "feed entry",
			logger.Int("rank", i+1),
			logger.String("id", item.Content.ID),
			logger.String("type", string(item.Content.Type)),
			logger.Float64("score", item.Score),
			logger.String("label", item.Label))
	}
}
