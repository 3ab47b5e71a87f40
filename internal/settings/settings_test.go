package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WORLDSTATUS_API_KEY", "")
	t.Setenv("WORLDSTATUS_MODEL", "")
	t.Setenv("WORLDSTATUS_QUERY", "")
	t.Setenv("WORLDSTATUS_MAX_RESULTS", "")
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")

	st, err := Open(path)
	if !errors.Is(err, ErrOnboardingRequired) {
		t.Fatalf("expected onboarding error, got %v", err)
	}

	cfg := st.Current()
	want := Defaults()
	if cfg.Query != want.Query {
		t.Errorf("query = %q, want default %q", cfg.Query, want.Query)
	}
	if cfg.MaxResults != want.MaxResults {
		t.Errorf("max results = %d, want %d", cfg.MaxResults, want.MaxResults)
	}
	if cfg.Timezone != want.Timezone {
		t.Errorf("timezone = %q, want %q", cfg.Timezone, want.Timezone)
	}
}

func TestOpenFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := "api_key: k\nquery: quantum computing\nmax_results: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	cfg := st.Current()
	if cfg.Query != "quantum computing" {
		t.Errorf("query = %q", cfg.Query)
	}
	if cfg.MaxResults != 3 {
		t.Errorf("max results = %d, want 3", cfg.MaxResults)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Model != Defaults().Model {
		t.Errorf("model = %q, want default", cfg.Model)
	}
	if len(cfg.StockSymbols) != 1 || cfg.StockSymbols[0] != "TSLA.US" {
		t.Errorf("stock symbols = %v, want default", cfg.StockSymbols)
	}
}

func TestOpenEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("api_key: from-file\nquery: from file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WORLDSTATUS_API_KEY", "from-env")
	t.Setenv("WORLDSTATUS_QUERY", "from env")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cfg := st.Current()
	if cfg.APIKey != "from-env" {
		t.Errorf("api key = %q, want env value", cfg.APIKey)
	}
	if cfg.Query != "from env" {
		t.Errorf("query = %q, want env value", cfg.Query)
	}
}

func TestOpenInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("query: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil || errors.Is(err, ErrOnboardingRequired) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNormalizeBounds(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"below minimum", 0, 1},
		{"negative", -5, 1},
		{"in range", 6, 6},
		{"above cap", 50, MaxResultsLimit},
	}
	for _, tt := range tests {
		cfg := Defaults()
		cfg.MaxResults = tt.in
		normalize(&cfg)
		if cfg.MaxResults != tt.want {
			t.Errorf("%s: max results %d normalized to %d, want %d", tt.name, tt.in, cfg.MaxResults, tt.want)
		}
	}
}

func TestNormalizeSymbolsUppercased(t *testing.T) {
	cfg := Defaults()
	cfg.StockSymbols = []string{" tsla.us ", "", "aapl.us"}
	normalize(&cfg)
	if len(cfg.StockSymbols) != 2 || cfg.StockSymbols[0] != "TSLA.US" || cfg.StockSymbols[1] != "AAPL.US" {
		t.Errorf("symbols = %v", cfg.StockSymbols)
	}
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, err := Open(path)
	if !errors.Is(err, ErrOnboardingRequired) {
		t.Fatalf("open: %v", err)
	}

	next := st.Current()
	next.APIKey = "k"
	next.Query = "space launches"
	next.MaxResults = 99 // must be clamped before hitting disk
	if err := st.Update(next); err != nil {
		t.Fatalf("update: %v", err)
	}
	if st.Current().MaxResults != MaxResultsLimit {
		t.Errorf("in-memory max results = %d, want clamped", st.Current().MaxResults)
	}

	// A fresh Open sees exactly what Update wrote.
	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := st2.Current(); got.Query != "space launches" || got.MaxResults != MaxResultsLimit {
		t.Errorf("reloaded query=%q max=%d", got.Query, got.MaxResults)
	}

	// Atomic save leaves no temp file behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestSetAPIKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	st, _ := Open(path)

	if err := st.SetAPIKey("  "); !errors.Is(err, ErrOnboardingRequired) {
		t.Errorf("blank key: got %v", err)
	}
	if err := st.SetAPIKey("xai-123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen after set: %v", err)
	}
	if st2.Current().APIKey != "xai-123" {
		t.Errorf("api key = %q", st2.Current().APIKey)
	}
}

func TestTTL(t *testing.T) {
	cfg := Defaults()
	if got := cfg.TTL(SourceWeather); got != 30*time.Minute {
		t.Errorf("weather ttl = %v", got)
	}
	cfg.Refresh[SourceStocks] = "5m"
	if got := cfg.TTL(SourceStocks); got != 5*time.Minute {
		t.Errorf("stocks ttl = %v", got)
	}
	cfg.Refresh[SourceNews] = "garbage"
	if got := cfg.TTL(SourceNews); got != 30*time.Minute {
		t.Errorf("unparseable ttl = %v, want default", got)
	}
	cfg.Refresh[SourceWeather] = "-10m"
	if got := cfg.TTL(SourceWeather); got != 30*time.Minute {
		t.Errorf("negative ttl = %v, want default", got)
	}
}

func TestSourcesHeadlinesConditional(t *testing.T) {
	cfg := Defaults()
	if got := strings.Join(cfg.Sources(), ","); got != "weather,stocks,news" {
		t.Errorf("sources = %s", got)
	}
	cfg.HeadlineFeeds = []Feed{{Name: "HN", URL: "https://news.ycombinator.com/rss"}}
	if got := strings.Join(cfg.Sources(), ","); got != "weather,stocks,news,headlines" {
		t.Errorf("sources with feeds = %s", got)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a, b ,c", []string{"a", "b", "c"}},
		{" , ,", nil},
		{"", nil},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		got := ParseList(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("ParseList(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestFetchAffecting(t *testing.T) {
	base := Defaults()

	news := base
	news.Query = "different"
	if got := FetchAffecting(base, news); len(got) != 1 || got[0] != SourceNews {
		t.Errorf("query edit affects %v", got)
	}

	stocks := base
	stocks.StockSymbols = []string{"AAPL.US"}
	if got := FetchAffecting(base, stocks); len(got) != 1 || got[0] != SourceStocks {
		t.Errorf("symbols edit affects %v", got)
	}

	weather := base
	weather.Latitude = 51.5
	if got := FetchAffecting(base, weather); len(got) != 1 || got[0] != SourceWeather {
		t.Errorf("latitude edit affects %v", got)
	}

	// Presentation-only changes never trigger a fetch.
	show := base
	show.ShowLinks = !base.ShowLinks
	if got := FetchAffecting(base, show); len(got) != 0 {
		t.Errorf("show-links edit affects %v, want none", got)
	}
}
