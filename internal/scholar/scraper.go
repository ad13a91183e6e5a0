// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar scrapes citation metrics and publication counts from
// Google Scholar profile pages.
//
// Every fetch is best effort: a failed step leaves its fields at zero and
// the scraper moves on. No method of Scraper returns a fetch error except
// FetchProfile, which needs the page to exist.
package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-enrich/internal/httputil"
	"github.com/pdiddy/scholar-enrich/internal/logging"
	"github.com/pdiddy/scholar-enrich/pkg/types"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 30
)

// Scraper fetches profile pages. It is not safe for concurrent use because
// the pacer serializes requests.
type Scraper struct {
	client *http.Client
	cfg    types.ScholarConfig
	pacer  httputil.Pacer
}

// New returns a Scraper. A nil pacer selects a JitterPacer over
// cfg.MinDelay..cfg.MaxDelay.
func New(client *http.Client, cfg types.ScholarConfig, pacer httputil.Pacer) *Scraper {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultUserAgent
	}
	if pacer == nil {
		pacer = httputil.NewJitterPacer(cfg.MinDelay, cfg.MaxDelay)
	}
	return &Scraper{client: client, cfg: cfg, pacer: pacer}
}

// PublicationTally is the result of paginating a profile's publication list.
type PublicationTally struct {
	// PageCounts holds the row count of every page fetched, in order.
	PageCounts []int
	Total      int
	PerYear    []types.YearCount
}

// FetchMetrics returns the summary metrics, yearly citation series, and
// publication counts for a profile id.
func (s *Scraper) FetchMetrics(ctx context.Context, id string) types.ProfileMetrics {
	var m types.ProfileMetrics
	doc, err := s.get(ctx, s.profileURL(id, -1))
	if err != nil {
		logging.Warn("profile summary fetch failed", "profile", id, "err", err)
	} else {
		parseSummary(doc, &m)
		m.CitationsPerYear = parseCitationSeries(doc)
	}

	tally := s.Tally(ctx, id)
	m.TotalDocuments = tally.Total
	m.DocumentsPerYear = tally.PerYear
	return m
}

// FetchProfile reads the profile owner's name, affiliation, and interests
// along with the metrics FetchMetrics would return.
func (s *Scraper) FetchProfile(ctx context.Context, id string) (types.Profile, error) {
	p := types.Profile{ID: id}
	doc, err := s.get(ctx, s.profileURL(id, -1))
	if err != nil {
		return p, fmt.Errorf("fetching profile %s: %w", id, err)
	}

	p.Name = strings.TrimSpace(doc.Find("#gsc_prf_in").First().Text())
	doc.Find(".gsc_prf_il").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		txt := strings.TrimSpace(sel.Text())
		if txt == "" || strings.Contains(txt, "Verified email") || strings.Contains(txt, "Follow") {
			return true
		}
		p.Affiliation = txt
		return false
	})
	doc.Find(".gsc_prf_inta").Each(func(_ int, sel *goquery.Selection) {
		if txt := strings.TrimSpace(sel.Text()); txt != "" {
			p.Interests = append(p.Interests, txt)
		}
	})

	parseSummary(doc, &p.Metrics)
	p.Metrics.CitationsPerYear = parseCitationSeries(doc)
	tally := s.Tally(ctx, id)
	p.Metrics.TotalDocuments = tally.Total
	p.Metrics.DocumentsPerYear = tally.PerYear
	return p, nil
}

// Tally pages through the publication list PageSize rows at a time. It
// stops at the first short page, the first failed page, or after MaxPages.
func (s *Scraper) Tally(ctx context.Context, id string) PublicationTally {
	var t PublicationTally
	years := make(map[int]int)

	for page := 0; page < s.cfg.MaxPages; page++ {
		doc, err := s.get(ctx, s.profileURL(id, page*s.cfg.PageSize))
		if err != nil {
			logging.Warn("publication page fetch failed", "profile", id, "page", page, "err", err)
			break
		}

		rows := doc.Find(".gsc_a_tr")
		count := rows.Length()
		t.PageCounts = append(t.PageCounts, count)
		t.Total += count

		rows.Each(func(_ int, row *goquery.Selection) {
			if y, err := strconv.Atoi(strings.TrimSpace(row.Find(".gsc_a_y").Text())); err == nil {
				years[y]++
			}
		})

		if count < s.cfg.PageSize {
			break
		}
	}

	t.PerYear = sortedSeries(years)
	return t
}

// profileURL builds the profile page URL. A negative cstart omits paging.
func (s *Scraper) profileURL(id string, cstart int) string {
	params := url.Values{
		"user": {id},
		"hl":   {"en"},
	}
	if cstart >= 0 {
		params.Set("cstart", strconv.Itoa(cstart))
		params.Set("pagesize", strconv.Itoa(s.cfg.PageSize))
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/citations?" + params.Encode()
}

func (s *Scraper) get(ctx context.Context, reqURL string) (*goquery.Document, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing profile page: %w", err)
	}
	return doc, nil
}
