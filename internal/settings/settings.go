package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Source names used as cache keys and scheduler identities.
const (
	SourceWeather   = "weather"
	SourceNews      = "news"
	SourceStocks    = "stocks"
	SourceHeadlines = "headlines"
)

// MaxAllowedHandles is the provider-imposed cap on the allowed-handle list.
const MaxAllowedHandles = 10

// MaxResultsLimit bounds the news max-results setting.
const MaxResultsLimit = 10

// ErrOnboardingRequired is returned by Open when no API key could be found
// in the config file or environment. The caller is expected to prompt for
// one and call SetAPIKey.
var ErrOnboardingRequired = errors.New("no API key configured")

type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Settings struct {
	APIKey          string   `yaml:"api_key,omitempty"`
	Model           string   `yaml:"model"`
	Query           string   `yaml:"query"`
	MaxResults      int      `yaml:"max_results"`
	ShowLinks       bool     `yaml:"show_links"`
	AllowedHandles  []string `yaml:"allowed_handles,omitempty"`
	ExcludedHandles []string `yaml:"excluded_handles,omitempty"`
	IncludeKeywords []string `yaml:"include_keywords,omitempty"`
	ExcludeKeywords []string `yaml:"exclude_keywords,omitempty"`
	LookbackHours   int      `yaml:"lookback_hours,omitempty"`
	SummaryPrompt   string   `yaml:"summary_prompt,omitempty"`

	StockSymbols  []string `yaml:"stock_symbols"`
	HeadlineFeeds []Feed   `yaml:"headline_feeds,omitempty"`

	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`

	// Refresh maps a source name to a time.ParseDuration string.
	Refresh map[string]string `yaml:"refresh,omitempty"`

	// HandlePresets extend the built-in presets; entries in AllowedHandles
	// prefixed with "+" expand against them.
	HandlePresets map[string][]string `yaml:"handle_presets,omitempty"`
}

func Defaults() Settings {
	return Settings{
		Model:         "grok-4-1-fast",
		Query:         "Toronto news OR Canada news",
		MaxResults:    6,
		ShowLinks:     true,
		SummaryPrompt: "Summarize the following posts in 1-2 sentences. Be concise and neutral.",
		StockSymbols:  []string{"TSLA.US"},
		Latitude:      43.65107,
		Longitude:     -79.347015,
		Timezone:      "America/Toronto",
		Refresh: map[string]string{
			SourceWeather:   "30m",
			SourceNews:      "30m",
			SourceStocks:    "30m",
			SourceHeadlines: "15m",
		},
	}
}

var defaultTTLs = map[string]time.Duration{
	SourceWeather:   30 * time.Minute,
	SourceNews:      30 * time.Minute,
	SourceStocks:    30 * time.Minute,
	SourceHeadlines: 15 * time.Minute,
}

// TTL returns the refresh interval for a source, falling back to the
// built-in default when unset or unparseable.
func (s Settings) TTL(source string) time.Duration {
	if v, ok := s.Refresh[source]; ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	if d, ok := defaultTTLs[source]; ok {
		return d
	}
	return 30 * time.Minute
}

// Sources returns the sources this configuration activates, in display
// order. Headlines only participate when at least one feed is configured.
func (s Settings) Sources() []string {
	out := []string{SourceWeather, SourceStocks, SourceNews}
	if len(s.HeadlineFeeds) > 0 {
		out = append(out, SourceHeadlines)
	}
	return out
}

func (s Settings) Lookback() time.Duration {
	return time.Duration(s.LookbackHours) * time.Hour
}

func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "worldstatus", "settings.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "worldstatus", "worldstatus.db")
}

// Store owns the durable settings file and the current in-memory value.
type Store struct {
	path string
	cur  Settings
}

// Open loads settings with precedence defaults < file < environment.
// A missing file is not an error. A missing API key from every source
// returns the Store alongside ErrOnboardingRequired so the caller can
// prompt and call SetAPIKey.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err == nil {
		// Unmarshal on top of the defaults: absent keys keep their
		// default value, present keys win.
		if uerr := yaml.Unmarshal(data, &cfg); uerr != nil {
			return nil, fmt.Errorf("parsing settings %s: %w", path, uerr)
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)

	st := &Store{path: path, cur: cfg}
	if cfg.APIKey == "" {
		return st, ErrOnboardingRequired
	}
	return st, nil
}

func applyEnv(cfg *Settings) {
	if v := strings.TrimSpace(os.Getenv("WORLDSTATUS_API_KEY")); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("WORLDSTATUS_MODEL")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("WORLDSTATUS_QUERY")); v != "" {
		cfg.Query = v
	}
	if v := strings.TrimSpace(os.Getenv("WORLDSTATUS_MAX_RESULTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxResults = n
		}
	}
}

// Current returns a copy of the in-memory settings.
func (st *Store) Current() Settings { return st.cur }

func (st *Store) Path() string { return st.path }

// SetAPIKey records an interactively entered key and persists it. The
// onboarding prompt outranks the environment by design: an explicit answer
// is the most recent expression of intent.
func (st *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrOnboardingRequired
	}
	next := st.cur
	next.APIKey = key
	return st.Update(next)
}

// Update validates and persists a new settings value. Values that violate
// a bound are clamped or truncated before anything is written; the durable
// file never holds an out-of-bounds value.
func (st *Store) Update(next Settings) error {
	normalize(&next)
	if err := st.save(next); err != nil {
		return err
	}
	st.cur = next
	return nil
}

// save writes atomically: temp file in the same directory, then rename,
// so a crash mid-write cannot leave a torn settings file.
func (st *Store) save(cfg Settings) error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

func normalize(cfg *Settings) {
	if cfg.MaxResults < 1 {
		cfg.MaxResults = 1
	}
	if cfg.MaxResults > MaxResultsLimit {
		cfg.MaxResults = MaxResultsLimit
	}
	if cfg.LookbackHours < 0 {
		cfg.LookbackHours = 0
	}
	cfg.AllowedHandles = ExpandHandles(cfg.AllowedHandles, cfg.HandlePresets)
	cfg.ExcludedHandles = cleanList(cfg.ExcludedHandles)
	cfg.IncludeKeywords = cleanList(cfg.IncludeKeywords)
	cfg.ExcludeKeywords = cleanList(cfg.ExcludeKeywords)

	syms := make([]string, 0, len(cfg.StockSymbols))
	for _, s := range cfg.StockSymbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			syms = append(syms, s)
		}
	}
	cfg.StockSymbols = syms
}

func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseList splits comma-separated user input into a trimmed list.
func ParseList(input string) []string {
	var out []string
	for _, v := range strings.Split(input, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// FetchAffecting reports which sources must be re-fetched because an edit
// changed their provider query, as opposed to presentation-only fields
// like show-links that only need a re-derive.
func FetchAffecting(old, next Settings) []string {
	var out []string
	if old.Query != next.Query ||
		old.Model != next.Model ||
		old.MaxResults != next.MaxResults ||
		old.LookbackHours != next.LookbackHours ||
		!equal(old.AllowedHandles, next.AllowedHandles) ||
		!equal(old.ExcludedHandles, next.ExcludedHandles) ||
		!equal(old.IncludeKeywords, next.IncludeKeywords) ||
		!equal(old.ExcludeKeywords, next.ExcludeKeywords) {
		out = append(out, SourceNews)
	}
	if !equal(old.StockSymbols, next.StockSymbols) {
		out = append(out, SourceStocks)
	}
	if old.Latitude != next.Latitude || old.Longitude != next.Longitude || old.Timezone != next.Timezone {
		out = append(out, SourceWeather)
	}
	if !feedsEqual(old.HeadlineFeeds, next.HeadlineFeeds) {
		out = append(out, SourceHeadlines)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func feedsEqual(a, b []Feed) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
