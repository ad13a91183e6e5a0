// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search finds a scholar profile for a person's name through a web
// search API and enriches the hit with metrics from the profile page.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/scholar-enrich/internal/httputil"
	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

// MetricsFetcher returns deep metrics for a profile id. The scholar
// scraper implements it.
type MetricsFetcher interface {
	FetchMetrics(ctx context.Context, id string) types.ProfileMetrics
}

// Hit is a qualifying search result with its scraped metrics.
type Hit struct {
	Profile types.SearchResult
	Metrics types.ProfileMetrics
}

// Client queries the Serper web-search API.
type Client struct {
	client  *http.Client
	cfg     types.SearchConfig
	metrics MetricsFetcher
	pacer   httputil.Pacer
}

// NewClient returns a search client. metrics may be nil, in which case hits
// carry only the snippet citation count. A nil pacer spaces requests by
// cfg.Interval.
func NewClient(client *http.Client, cfg types.SearchConfig, metrics MetricsFetcher, pacer httputil.Pacer) *Client {
	if pacer == nil {
		pacer = httputil.NewIntervalPacer(cfg.Interval)
	}
	return &Client{client: client, cfg: cfg, metrics: metrics, pacer: pacer}
}

var queryQuotes = strings.NewReplacer("'", "", `"`, "")

// Lookup searches for name and returns the first result that links to a
// profile. Transport and decode errors are logged and reported as no match
// so the caller can retry with another rendering of the name.
func (c *Client) Lookup(ctx context.Context, name string) (Hit, bool) {
	query := strings.TrimSpace(queryQuotes.Replace(name))
	if query == "" {
		return Hit{}, false
	}

	results, err := c.search(ctx, query)
	if err != nil {
		logging.Warn("search failed", "name", name, "err", err)
		return Hit{}, false
	}

	for _, r := range results {
		profile, ok := parseResult(r)
		if !ok {
			continue
		}

		hit := Hit{Profile: profile}
		if c.metrics != nil {
			hit.Metrics = c.metrics.FetchMetrics(ctx, profile.ProfileID)
		}
		if hit.Metrics.TotalCitations <= 0 {
			hit.Metrics.TotalCitations = profile.SnippetCitations
		}
		return hit, true
	}
	return Hit{}, false
}

func (c *Client) search(ctx context.Context, query string) ([]organicResult, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	q := query
	if c.cfg.Site != "" {
		q = "site:" + c.cfg.Site + " " + query
	}
	body, err := json.Marshal(serperRequest{Q: q, GL: c.cfg.Country, HL: c.cfg.Language})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("search API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned HTTP %d", resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return sr.Organic, nil
}

// Serper API JSON structures.
type serperRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl,omitempty"`
	HL string `json:"hl,omitempty"`
}

type serperResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}
