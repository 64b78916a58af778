package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Source         Source         `yaml:"source"`
	Watchlist      Watchlist      `yaml:"watchlist"`
	Prices         Prices         `yaml:"prices"`
	Recommendation Recommendation `yaml:"recommendation"`
	Output         Output         `yaml:"output"`
	Archive        Archive        `yaml:"archive"`
	Server         Server         `yaml:"server"`
	Logging        Logging        `yaml:"logging"`
}

// Source describes where press releases are scraped from.
type Source struct {
	Mode                string    `yaml:"mode"` // "html" or "rss"
	BaseURL             string    `yaml:"base_url"`
	ListingPath         string    `yaml:"listing_path"`
	FeedURL             string    `yaml:"feed_url"`
	Pages               int       `yaml:"pages"`
	PageSize            int       `yaml:"page_size"`
	LookbackDays        int       `yaml:"lookback_days"`
	DateLayout          string    `yaml:"date_layout"`
	DateSuffix          string    `yaml:"date_suffix"`
	Timezone            string    `yaml:"timezone"`
	Selectors           Selectors `yaml:"selectors"`
	ReadabilityFallback bool      `yaml:"readability_fallback"`
	RequestsPerSecond   float64   `yaml:"requests_per_second"`
	TimeoutSeconds      int       `yaml:"timeout_seconds"`
	UserAgent           string    `yaml:"user_agent"`
}

type Selectors struct {
	Card  string `yaml:"card"`
	Date  string `yaml:"date"`
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type Watchlist struct {
	Exchange      string   `yaml:"exchange"`
	Symbols       []string `yaml:"symbols"`
	MaxPerArticle int      `yaml:"max_per_article"`
}

type Prices struct {
	Provider     string `yaml:"provider"` // "yahoo" or "eodhd"
	Suffix       string `yaml:"suffix"`
	LookbackDays int    `yaml:"lookback_days"`
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
}

type Recommendation struct {
	ThresholdPct float64 `yaml:"threshold_pct"`
}

type Output struct {
	Dir     string `yaml:"dir"`
	DataDir string `yaml:"data_dir"`
	Summary bool   `yaml:"summary"`
	PDF     bool   `yaml:"pdf"`
}

type Archive struct {
	Enabled bool `yaml:"enabled"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for tickerscout.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "tickerscout")
}

// DataDir returns the XDG data directory for tickerscout.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "tickerscout")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/tickerscout/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and the embedded
// default should be used.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the
// embedded default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Source: Source{
			Mode:         "html",
			BaseURL:      "https://www.prnewswire.com",
			ListingPath:  "/news-releases/news-releases-list/",
			Pages:        100,
			PageSize:     25,
			LookbackDays: 14,
			DateLayout:   "Jan 02, 2006, 15:04",
			DateSuffix:   " ET",
			Timezone:     "America/New_York",
			Selectors: Selectors{
				Card:  "div.card",
				Date:  ".mb-no",
				Title: "h1",
				Body:  "div.col-lg-10.col-lg-offset-1",
			},
			TimeoutSeconds: 30,
			UserAgent:      "Mozilla/5.0 (compatible; TickerScout/1.0)",
		},
		Watchlist: Watchlist{
			Exchange:      "TSX",
			MaxPerArticle: 3,
		},
		Prices: Prices{
			Provider:     "yahoo",
			Suffix:       ".TO",
			LookbackDays: 30,
			APIKeyEnv:    "EODHD_API_KEY",
		},
		Recommendation: Recommendation{ThresholdPct: 2.0},
		Output:         Output{Dir: ".", Summary: true},
		Archive:        Archive{Enabled: true},
		Server:         Server{Port: 8000},
		Logging:        Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for i, s := range cfg.Watchlist.Symbols {
		cfg.Watchlist.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	return cfg, nil
}

// Validate checks that the values the pipeline depends on are usable.
func (c *Config) Validate() error {
	switch c.Source.Mode {
	case "html":
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required")
		}
		if c.Source.Pages <= 0 {
			return fmt.Errorf("source.pages must be positive")
		}
		if c.Source.PageSize <= 0 {
			return fmt.Errorf("source.page_size must be positive")
		}
	case "rss":
		if c.Source.FeedURL == "" {
			return fmt.Errorf("source.feed_url is required in rss mode")
		}
	default:
		return fmt.Errorf("source.mode must be \"html\" or \"rss\", got %q", c.Source.Mode)
	}
	if c.Source.LookbackDays <= 0 {
		return fmt.Errorf("source.lookback_days must be positive")
	}
	if c.Source.RequestsPerSecond < 0 {
		return fmt.Errorf("source.requests_per_second must not be negative")
	}
	if c.Watchlist.Exchange == "" {
		return fmt.Errorf("watchlist.exchange is required")
	}
	if len(c.Watchlist.Symbols) == 0 {
		return fmt.Errorf("watchlist.symbols must not be empty")
	}
	if c.Watchlist.MaxPerArticle <= 0 {
		return fmt.Errorf("watchlist.max_per_article must be positive")
	}
	switch c.Prices.Provider {
	case "yahoo", "eodhd":
	default:
		return fmt.Errorf("prices.provider must be \"yahoo\" or \"eodhd\", got %q", c.Prices.Provider)
	}
	if c.Prices.LookbackDays <= 0 {
		return fmt.Errorf("prices.lookback_days must be positive")
	}
	if c.Recommendation.ThresholdPct < 0 {
		return fmt.Errorf("recommendation.threshold_pct must not be negative")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetOutputDir returns the directory reports are written to.
func (c *Config) GetOutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return "."
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
