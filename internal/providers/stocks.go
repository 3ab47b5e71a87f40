package providers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type StocksClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewStocksClient() *StocksClient {
	return &StocksClient{
		baseURL: "https://stooq.com/q/l/",
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
}

// Fetch retrieves quotes for exchange-qualified symbols (e.g. TSLA.US)
// from stooq's CSV endpoint.
func (s *StocksClient) Fetch(ctx context.Context, symbols []string) (StocksPayload, error) {
	if len(symbols) == 0 {
		return StocksPayload{}, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return StocksPayload{}, err
	}

	lower := make([]string, len(symbols))
	for i, sym := range symbols {
		lower[i] = strings.ToLower(sym)
	}
	u := s.baseURL + "?s=" + strings.Join(lower, ",") + "&f=sd2t2ohlcv&h&e=csv"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return StocksPayload{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return StocksPayload{}, fmt.Errorf("fetching quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StocksPayload{}, fmt.Errorf("stooq API %d", resp.StatusCode)
	}

	quotes, err := parseQuoteCSV(resp.Body)
	if err != nil {
		return StocksPayload{}, err
	}
	return StocksPayload{Quotes: quotes}, nil
}

// parseQuoteCSV reads stooq's fixed header layout:
// Symbol,Date,Time,Open,High,Low,Close,Volume. Unquoted numeric fields
// come back as "N/D" when the market has no data; those stay nil.
func parseQuoteCSV(r io.Reader) ([]Quote, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing quote CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("quote CSV has no data rows")
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var quotes []Quote
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		quotes = append(quotes, Quote{
			Symbol: strings.ToUpper(field(row, "symbol")),
			Date:   field(row, "date"),
			Time:   field(row, "time"),
			Open:   toFloat(field(row, "open")),
			High:   toFloat(field(row, "high")),
			Low:    toFloat(field(row, "low")),
			Close:  toFloat(field(row, "close")),
			Volume: toFloat(field(row, "volume")),
		})
	}
	return quotes, nil
}

func toFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
