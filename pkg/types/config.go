package types

import "time"

// HTTPConfig holds shared HTTP settings for requests to the arXiv API.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreBackend selects the deduplication store implementation.
type StoreBackend string

const (
	StoreJSON   StoreBackend = "json"
	StoreSQLite StoreBackend = "sqlite"
)

// RunConfig holds the settings for one daily run. It is assembled from
// command-line flags, the optional settings file, and the environment.
type RunConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Days is the lookback window in days (default 1).
	Days int `json:"days" yaml:"days" mapstructure:"days"`

	// MaxResults caps the number of upstream entries examined (default 1000).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// DataDir receives the collection, reports, and (by default) the store.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigFile is the keyword configuration path (default "config.json").
	ConfigFile string `json:"config" yaml:"config" mapstructure:"config"`

	// NoReport suppresses Markdown report generation.
	NoReport bool `json:"no_report" yaml:"no_report" mapstructure:"no_report"`

	// Store selects the deduplication backend: json or sqlite.
	Store StoreBackend `json:"store" yaml:"store" mapstructure:"store"`

	// StorePath overrides the store file location. Empty means a file named
	// after the backend inside DataDir.
	StorePath string `json:"store_path" yaml:"store_path" mapstructure:"store_path"`

	// PageDelay is the pause between consecutive arXiv API page requests.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`
}
