// Package providers wraps the external data services behind typed
// fetchers. Each fetch is a pure function of (settings, query): it
// validates the provider response at the boundary and returns either a
// typed payload or an error, never touching the cache or display state.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmoreira/worldstatus/internal/settings"
)

// Client bundles one fetcher per source behind a single dispatch point.
type Client struct {
	Weather   *WeatherClient
	News      *NewsClient
	Stocks    *StocksClient
	Headlines *HeadlinesClient
}

func New(apiKey string) *Client {
	return &Client{
		Weather:   NewWeatherClient(),
		News:      NewNewsClient(apiKey),
		Stocks:    NewStocksClient(),
		Headlines: NewHeadlinesClient(),
	}
}

// Fetch runs one source's provider call and returns the encoded payload
// ready for the cache. Errors are wrapped with the source name.
func (c *Client) Fetch(ctx context.Context, source string, cfg settings.Settings) ([]byte, error) {
	var (
		payload any
		err     error
	)
	switch source {
	case settings.SourceWeather:
		payload, err = c.Weather.Fetch(ctx, cfg.Latitude, cfg.Longitude, cfg.Timezone)
	case settings.SourceNews:
		payload, err = c.News.Fetch(ctx, cfg, time.Now())
	case settings.SourceStocks:
		payload, err = c.Stocks.Fetch(ctx, cfg.StockSymbols)
	case settings.SourceHeadlines:
		payload, err = c.Headlines.Fetch(ctx, cfg.HeadlineFeeds)
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
	if err != nil {
		return nil, &ProviderError{Source: source, Err: err}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Source: source, Err: err}
	}
	return data, nil
}
