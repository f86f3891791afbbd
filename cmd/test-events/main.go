package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/agora/internal/testevents"
)

// Default configuration constants.
const (
	defaultDecisions   = 100
	defaultRounds      = 200
	defaultDuplicates  = 20
	defaultFeedItems   = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		decisions  = flag.Int("decisions", defaultDecisions, "Decisions carried by every update")
		rounds     = flag.Int("rounds", defaultRounds, "Number of updates to push")
		duplicates = flag.Int("duplicates", defaultDuplicates, "Updates redelivered with an already used id")
		feedItems  = flag.Int("feed", defaultFeedItems, "Content items to rank")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write generated updates to this JSON file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}

	if err := testevents.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &testevents.Config{
		BaseURL:    *baseURL,
		Decisions:  *decisions,
		Rounds:     *rounds,
		Duplicates: *duplicates,
		FeedItems:  *feedItems,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if err := testevents.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called explicitly above
	}
}
