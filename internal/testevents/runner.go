package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/agora/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// Run executes the complete update test.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting agora update test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("decisions", cfg.Decisions),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose))

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	updates, err := generateUpdates(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("update generation failed: %w", err)
	}

	if err := submitUpdates(ctx, cfg, updates, stats); err != nil {
		return fmt.Errorf("update submission failed: %w", err)
	}

	st, err := waitForDrain(ctx, cfg)
	if err != nil {
		return fmt.Errorf("waiting for queue drain failed: %w", err)
	}

	feed, err := rankFeed(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("feed ranking failed: %w", err)
	}

	if err := verifyResults(ctx, cfg, updates, st, feed, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveUpdatesToFile(ctx, cfg.OutputFile, updates); err != nil {
			log.Warn(ctx, "failed to save updates to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls /stats until the update queue is empty and returns the
// last stats seen. The worker may still be applying the last dequeued
// update, so one extra poll follows the first empty reading.
func waitForDrain(ctx context.Context, cfg *Config) (*serviceStats, error) {
	wait := cfg.DrainWait
	if wait <= 0 {
		wait = DefaultDrainWait
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(DrainPollInterval)
	defer ticker.Stop()

	empty := 0
	for {
		st, err := fetchStats(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if st.QueueLength == 0 {
			empty++
			if empty > 1 {
				return st, nil
			}
		} else {
			empty = 0
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("queue still holds %d updates: %w", st.QueueLength, ctx.Err())
		case <-ticker.C:
		}
	}
}

// saveUpdatesToFile writes the generated updates as a JSON array.
func saveUpdatesToFile(ctx context.Context, filename string, updates []UpdateRequest) error {
	if len(updates) == 0 {
		return fmt.Errorf("no updates to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(updates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal updates: %w", err)
	}
	if err := os.WriteFile(filename, data, outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "updates saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var acceptRate, updatesPerSecond float64

	if stats.UpdatesSubmitted > 0 {
		acceptRate = float64(stats.UpdatesAccepted) / float64(stats.UpdatesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		updatesPerSecond = float64(stats.UpdatesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("updatesGenerated", stats.UpdatesGenerated),
		logger.Int("updatesSubmitted", stats.UpdatesSubmitted),
		logger.Int("updatesAccepted", stats.UpdatesAccepted),
		logger.Int("updatesDuplicate", stats.UpdatesDuplicate),
		logger.Int("updatesRejected", stats.UpdatesRejected),
		logger.Int("updatesFailed", stats.UpdatesFailed),
		logger.Int("decisionsTracked", stats.DecisionsTracked),
		logger.Int("flashesActive", stats.FlashesActive),
		logger.Int("feedItemsRanked", stats.FeedItemsRanked),
		logger.Int("feedItemsFiltered", stats.FeedItemsFiltered),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("updatesPerSecond", updatesPerSecond))
}
