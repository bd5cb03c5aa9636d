// Package rules fetches the remote best-practice rule collection that the
// analyzer evaluates against a model. The collection format is owned by the
// external analyzer; this package only retrieves and materializes it.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/trannammai/pbilint/pkg/bpa"
)

// DefaultURL is the published best-practice rules collection for tabular
// models. Overridable via configuration so tests and air-gapped runs can
// substitute a fixture.
const DefaultURL = "https://raw.githubusercontent.com/microsoft/Analysis-Services/master/BestPracticeRules/BPARules.json"

// DefaultTimeout bounds a single fetch. The underlying transfer is otherwise
// a plain blocking GET with no retries.
const DefaultTimeout = 30 * time.Second

// ErrNoRules marks the fatal configuration error of an empty rule collection.
// A network failure, a malformed response, and a genuinely empty collection
// are indistinguishable to the caller and none of them permit a fallback.
var ErrNoRules = errors.New("no best-practice rules loaded")

// maxRulesBody guards against pathological responses.
const maxRulesBody = 16 << 20

// Fetcher retrieves rule collections over HTTP.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil client gets a client with
// DefaultTimeout; a nil logger gets slog.Default().
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch GETs the rule collection at url and materializes it. An empty
// result, whatever the cause, is reported as ErrNoRules.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*bpa.Collection, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: no rules URL configured", ErrNoRules)
	}

	f.logger.Debug("fetching rule collection", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ErrNoRules, url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrNoRules, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: unexpected status %s", ErrNoRules, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRulesBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNoRules, url, err)
	}

	var parsed []bpa.Rule
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrNoRules, url, err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: %s returned an empty collection", ErrNoRules, url)
	}

	f.logger.Info("rule collection loaded", "url", url, "rules", len(parsed))
	return &bpa.Collection{Rules: parsed, Source: url}, nil
}
