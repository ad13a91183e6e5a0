// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default of 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// RosterConfig describes the input table.
type RosterConfig struct {
	// Path is the roster CSV file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// NameColumn is the header of the full-name column (required).
	NameColumn string `json:"name_column" yaml:"name_column" mapstructure:"name_column"`

	// AffiliationColumn is the header of the declared-affiliation column (optional).
	AffiliationColumn string `json:"affiliation_column" yaml:"affiliation_column" mapstructure:"affiliation_column"`
}

// BatchConfig holds settings for the batch phase.
type BatchConfig struct {
	// Dir is where batch artifacts are written.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Size is the number of roster rows per batch (default 20).
	Size int `json:"size" yaml:"size" mapstructure:"size"`

	// LedgerPath is the SQLite checkpoint ledger (default <Dir>/ledger.db).
	LedgerPath string `json:"ledger_path" yaml:"ledger_path" mapstructure:"ledger_path"`

	// ClaimTTL is how long a batch claim stays valid without completion.
	ClaimTTL time.Duration `json:"claim_ttl" yaml:"claim_ttl" mapstructure:"claim_ttl"`
}

// SearchConfig holds settings for the web-search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the search API URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey authenticates requests (X-API-KEY header).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Site restricts queries to the profile-hosting domain.
	Site string `json:"site" yaml:"site" mapstructure:"site"`

	// Country and Language are passed as gl and hl.
	Country  string `json:"country" yaml:"country" mapstructure:"country"`
	Language string `json:"language" yaml:"language" mapstructure:"language"`

	// Interval is the minimum spacing between search requests.
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`
}

// ScholarConfig holds settings for the profile scraper.
type ScholarConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the profile host (e.g. "https://scholar.google.com").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PageSize is the number of publications requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxPages caps publication pagination (default 30).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// MinDelay and MaxDelay bound the randomized delay before each request.
	MinDelay time.Duration `json:"min_delay" yaml:"min_delay" mapstructure:"min_delay"`
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
}

// PacingConfig holds the fixed delays of the batch loop.
type PacingConfig struct {
	// RecordDelay is the minimum spacing between the starts of consecutive
	// records (default 500ms). It is enforced by a token bucket, so a record
	// whose lookups already took longer than RecordDelay is followed by no
	// extra wait.
	RecordDelay time.Duration `json:"record_delay" yaml:"record_delay" mapstructure:"record_delay"`

	// BatchDelay is the minimum spacing between consecutive written batches
	// (default 2s), measured start to start like RecordDelay. Batches that
	// take longer than BatchDelay are followed by no extra wait.
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay" mapstructure:"batch_delay"`
}

// MergeConfig holds settings for the merge phase.
type MergeConfig struct {
	// OutputPath is the merged CSV file.
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`

	// AllowEmptyRemainder keeps the permissive single-token name rule.
	AllowEmptyRemainder bool `json:"allow_empty_remainder" yaml:"allow_empty_remainder" mapstructure:"allow_empty_remainder"`
}

// EnrichConfig groups all component configurations.
type EnrichConfig struct {
	Roster  RosterConfig  `json:"roster" yaml:"roster" mapstructure:"roster"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch"`
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Scholar ScholarConfig `json:"scholar" yaml:"scholar" mapstructure:"scholar"`
	Pacing  PacingConfig  `json:"pacing" yaml:"pacing" mapstructure:"pacing"`
	Merge   MergeConfig   `json:"merge" yaml:"merge" mapstructure:"merge"`
}

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DefaultConfig returns the configuration used when no file or flag overrides a value.
func DefaultConfig() EnrichConfig {
	return EnrichConfig{
		Roster: RosterConfig{
			Path:              "data/awardees.csv",
			NameColumn:        "adi_soyadi",
			AffiliationColumn: "calistigi_kurum",
		},
		Batch: BatchConfig{
			Dir:      "data/batches",
			Size:     20,
			ClaimTTL: 30 * time.Minute,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "scholar-enrich/0.1"},
			Endpoint:   "https://google.serper.dev/search",
			Site:       "scholar.google.com",
			Country:    "tr",
			Language:   "en",
		},
		Scholar: ScholarConfig{
			HTTPConfig: HTTPConfig{Timeout: 10 * time.Second, UserAgent: DefaultUserAgent},
			BaseURL:    "https://scholar.google.com",
			PageSize:   100,
			MaxPages:   30,
			MinDelay:   1 * time.Second,
			MaxDelay:   2 * time.Second,
		},
		Pacing: PacingConfig{
			RecordDelay: 500 * time.Millisecond,
			BatchDelay:  2 * time.Second,
		},
		Merge: MergeConfig{
			OutputPath:          "data/scholar_enriched.csv",
			AllowEmptyRemainder: true,
		},
	}
}
