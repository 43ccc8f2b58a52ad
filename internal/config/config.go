// engine/internal/config/config.go
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultYAML []byte

// Phrase is one weighted signal in a classifier dictionary.
type Phrase struct {
	Text   string  `yaml:"text" json:"text" validate:"required"`
	Weight float64 `yaml:"weight" json:"weight" validate:"gte=0"`
}

// Project is a project-type tag, the terms that select it and its value weight.
type Project struct {
	Tag    string   `yaml:"tag" json:"tag" validate:"required"`
	Weight float64  `yaml:"weight" json:"weight" validate:"gte=0,lte=1"`
	Terms  []string `yaml:"terms" json:"terms" validate:"min=1,dive,required"`
}

// Dictionary is the versioned configuration the intent classifier runs on.
type Dictionary struct {
	Version     string    `yaml:"version" json:"version" validate:"required"`
	Negative    []Phrase  `yaml:"negative" json:"negative" validate:"dive"`
	Positive    []Phrase  `yaml:"positive" json:"positive" validate:"min=1,dive"`
	Boosts      []Phrase  `yaml:"boosts" json:"boosts" validate:"dive"`
	Projects    []Project `yaml:"projects" json:"projects" validate:"min=1,dive"`
	Boilerplate []string  `yaml:"boilerplate" json:"boilerplate"`
	MinSignal   float64   `yaml:"min_signal" json:"min_signal" validate:"gte=0"`
	MaxSignal   float64   `yaml:"max_signal" json:"max_signal" validate:"gt=0"`
	TieBreak    string    `yaml:"tie_break" json:"tie_break" validate:"oneof=professional homeowner"`
}

// Origin holds the settings every adapter shares.
type Origin struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	MinDelayMS int     `yaml:"min_delay_ms" json:"min_delay_ms" validate:"gte=0"`
	Trust      float64 `yaml:"trust" json:"trust" validate:"gte=0,lte=1"`
	Limit      int     `yaml:"limit" json:"limit" validate:"gte=0"`
}

// MinDelay is the per-origin pacing interval.
func (o Origin) MinDelay() time.Duration {
	return time.Duration(o.MinDelayMS) * time.Millisecond
}

type Classifieds struct {
	Origin     `yaml:",inline"`
	Bases      []string `yaml:"bases" json:"bases" validate:"dive,url"`
	Regions    []string `yaml:"regions" json:"regions"`
	Categories []string `yaml:"categories" json:"categories" validate:"min=1"`
	Queries    []string `yaml:"queries" json:"queries" validate:"min=1"`
}

type GovBids struct {
	Origin   `yaml:",inline"`
	URL      string   `yaml:"url" json:"url" validate:"omitempty,url"`
	Agency   string   `yaml:"agency" json:"agency"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

type Search struct {
	Origin          `yaml:",inline"`
	Endpoint        string   `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	APIKey          string   `yaml:"api_key" json:"-"`
	Queries         []string `yaml:"queries" json:"queries"`
	NumResults      int      `yaml:"num_results" json:"num_results" validate:"gte=0,lte=100"`
	HydrateMinChars int      `yaml:"hydrate_min_chars" json:"hydrate_min_chars" validate:"gte=0"`
}

type Forum struct {
	Origin     `yaml:",inline"`
	Endpoint   string   `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	Subreddits []string `yaml:"subreddits" json:"subreddits"`
	Queries    []string `yaml:"queries" json:"queries"`
}

type Inbox struct {
	Origin      `yaml:",inline"`
	IMAPHost    string   `yaml:"imap_host" json:"imap_host"`
	IMAPPort    int      `yaml:"imap_port" json:"imap_port" validate:"gte=0,lte=65535"`
	Username    string   `yaml:"username" json:"username"`
	Mailbox     string   `yaml:"mailbox" json:"mailbox"`
	SubjectAny  []string `yaml:"subject_any" json:"subject_any"`
	MaxMessages int      `yaml:"max_messages" json:"max_messages" validate:"gte=0"`
}

type Origins struct {
	Craigslist Classifieds `yaml:"craigslist" json:"craigslist"`
	MiamiDade  GovBids     `yaml:"miamidade" json:"miamidade"`
	Broward    GovBids     `yaml:"broward" json:"broward"`
	Exa        Search      `yaml:"exa" json:"exa"`
	Brave      Search      `yaml:"brave" json:"brave"`
	DuckDuckGo Search      `yaml:"duckduckgo" json:"duckduckgo"`
	Reddit     Forum       `yaml:"reddit" json:"reddit"`
	Inbox      Inbox       `yaml:"inbox" json:"inbox"`
}

// Trust returns the configured trust for an origin name, 0.5 when unknown.
func (o Origins) Trust(name string) float64 {
	switch name {
	case "craigslist":
		return o.Craigslist.Trust
	case "miamidade":
		return o.MiamiDade.Trust
	case "broward":
		return o.Broward.Trust
	case "exa":
		return o.Exa.Trust
	case "brave":
		return o.Brave.Trust
	case "duckduckgo":
		return o.DuckDuckGo.Trust
	case "reddit":
		return o.Reddit.Trust
	case "inbox":
		return o.Inbox.Trust
	}
	return 0.5
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port" validate:"min=1,max=65535"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Run struct {
		Mode                 string `yaml:"mode" json:"mode" validate:"oneof=full legacy queries"`
		StalenessDays        int    `yaml:"staleness_days" json:"staleness_days" validate:"min=1"`
		OriginTimeoutSeconds int    `yaml:"origin_timeout_seconds" json:"origin_timeout_seconds" validate:"min=1"`
		QueueSize            int    `yaml:"queue_size" json:"queue_size" validate:"min=1"`
		IncludeStale         bool   `yaml:"include_stale" json:"include_stale"`
		EveryMinutes         int    `yaml:"every_minutes" json:"every_minutes" validate:"gte=0"`
	} `yaml:"run" json:"run"`

	Origins    Origins    `yaml:"origins" json:"origins"`
	Classifier Dictionary `yaml:"classifier" json:"classifier"`

	Scoring struct {
		ConfidenceWeight    float64 `yaml:"confidence_weight" json:"confidence_weight" validate:"gte=0"`
		ProjectWeight       float64 `yaml:"project_weight" json:"project_weight" validate:"gte=0"`
		RecencyWeight       float64 `yaml:"recency_weight" json:"recency_weight" validate:"gte=0"`
		TrustWeight         float64 `yaml:"trust_weight" json:"trust_weight" validate:"gte=0"`
		RecencyHalfLifeDays float64 `yaml:"recency_half_life_days" json:"recency_half_life_days" validate:"gt=0"`
		UnknownAgeFactor    float64 `yaml:"unknown_age_factor" json:"unknown_age_factor" validate:"gte=0,lte=1"`
	} `yaml:"scoring" json:"scoring"`

	Identity struct {
		GenericURLs []string `yaml:"generic_urls" json:"generic_urls"`
	} `yaml:"identity" json:"identity"`

	Queries struct {
		Regions   []string `yaml:"regions" json:"regions"`
		Sites     []string `yaml:"sites" json:"sites"`
		Locations []string `yaml:"locations" json:"locations"`
		Keywords  []string `yaml:"keywords" json:"keywords"`
	} `yaml:"queries" json:"queries"`

	Output struct {
		Dir         string `yaml:"dir" json:"dir"`
		JSONName    string `yaml:"json_name" json:"json_name" validate:"required"`
		CSVName     string `yaml:"csv_name" json:"csv_name" validate:"required"`
		QueriesName string `yaml:"queries_name" json:"queries_name" validate:"required"`
	} `yaml:"output" json:"output"`

	Enrichment struct {
		BaseURL        string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
		TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" validate:"gte=0"`
		CacheDays      int    `yaml:"cache_days" json:"cache_days" validate:"gte=0"`
	} `yaml:"enrichment" json:"enrichment"`
}

// StalenessWindow is the recency window as a duration.
func (c Config) StalenessWindow() time.Duration {
	return time.Duration(c.Run.StalenessDays) * 24 * time.Hour
}

// OriginTimeout bounds a single adapter's Fetch.
func (c Config) OriginTimeout() time.Duration {
	return time.Duration(c.Run.OriginTimeoutSeconds) * time.Second
}

// Default returns the embedded default configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// Load reads a YAML config on top of the embedded defaults, so a user file
// only needs the keys it changes.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
