package testevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/agora/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON fetches url and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return decodeResponse(resp, StatusOK, v)
}

// postJSON posts body to url and decodes a 200 response into v.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body, v any) error {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, StatusOK, v)
}

func decodeResponse(resp *http.Response, want int, v any) error {
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.Unmarshal(body, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitUpdates pushes updates concurrently using a worker pool.
func submitUpdates(ctx context.Context, cfg *Config, updates []UpdateRequest, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting updates", logger.Int("count", len(updates)), logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/decisions/updates"

	var accepted, duplicate, rejected, failed, submitted atomic.Int64

	updateChan := make(chan int, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range updateChan {
				if ctx.Err() != nil {
					return
				}
				result := submitSingleUpdate(ctx, client, url, &updates[index])

				submitted.Add(1)
				switch result {
				case resultAccepted:
					accepted.Add(1)
				case resultDuplicate:
					duplicate.Add(1)
				case resultRejected:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
				if cfg.Verbose {
					log.Debug(ctx, "update submitted",
						logger.String("id", updates[index].ID),
						logger.String("result", result))
				}
			}
		}()
	}

	go func() {
		defer close(updateChan)
		for i := range updates {
			select {
			case <-ctx.Done():
				return
			case updateChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.UpdatesSubmitted = int(submitted.Load())
	stats.UpdatesAccepted = int(accepted.Load())
	stats.UpdatesDuplicate = int(duplicate.Load())
	stats.UpdatesRejected = int(rejected.Load())
	stats.UpdatesFailed = int(failed.Load())

	log.Info(ctx, "update submission completed",
		logger.Int("accepted", stats.UpdatesAccepted),
		logger.Int("duplicate", stats.UpdatesDuplicate),
		logger.Int("rejected", stats.UpdatesRejected),
		logger.Int("failed", stats.UpdatesFailed))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled during submission: %w", err)
	}
	return nil
}

// submitSingleUpdate submits one update and classifies the response.
func submitSingleUpdate(ctx context.Context, client *HTTPClient, url string, u *UpdateRequest) string {
	resp, err := client.Post(ctx, url, u)
	if err != nil {
		return resultFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return resultFailed
	}

	var ack AckResponse
	switch resp.StatusCode {
	case StatusAccepted:
		return resultAccepted
	case StatusOK:
		if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
			return resultAccepted
		}
		return resultDuplicate
	case StatusTooManyRequests:
		return resultRejected
	default:
		return resultFailed
	}
}
