package providers

import (
	"errors"
	"fmt"
	"time"
)

// ErrCredentialMissing marks a fetch that could not run for lack of an API
// key. The interaction layer turns it into an onboarding hint instead of a
// per-source failure banner.
var ErrCredentialMissing = errors.New("API key missing")

// ProviderError wraps a provider failure with its source name so the
// scheduler can record it against the right pane.
type ProviderError struct {
	Source string
	Err    error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("%s: %v", e.Source, e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

// WeatherReport is the validated shape of an open-meteo response. Optional
// readings stay nil when the provider omits them.
type WeatherReport struct {
	Temperature float64  `json:"temperature"`
	Apparent    *float64 `json:"apparent,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   float64  `json:"wind_speed"`
	WindDir     *float64 `json:"wind_dir,omitempty"`
	Code        int      `json:"code"`
	Description string   `json:"description"`
	ObservedAt  string   `json:"observed_at"`
}

// Post is one social-media post from the news search provider.
type Post struct {
	Text         string    `json:"text"`
	AuthorHandle string    `json:"author_handle"`
	CreatedAt    time.Time `json:"created_at"`
	URL          string    `json:"url"`
}

// NewsPayload is the cached news record: the raw post sequence in
// provider order plus an optional one-line LLM summary.
type NewsPayload struct {
	Posts   []Post `json:"posts"`
	Summary string `json:"summary,omitempty"`
}

// Quote is one stooq quote row.
type Quote struct {
	Symbol string   `json:"symbol"`
	Date   string   `json:"date"`
	Time   string   `json:"time"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

type StocksPayload struct {
	Quotes []Quote `json:"quotes"`
}

// Headline is one RSS/Atom item from a configured headline feed.
type Headline struct {
	Feed      string    `json:"feed"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
}

type HeadlinesPayload struct {
	Items []Headline `json:"items"`
}
