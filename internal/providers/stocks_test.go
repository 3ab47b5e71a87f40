package providers

import (
	"strings"
	"testing"
)

func TestParseQuoteCSV(t *testing.T) {
	csv := `Symbol,Date,Time,Open,High,Low,Close,Volume
TSLA.US,2025-05-30,22:00:09,345.6,355.4,340.1,352.2,12345678
AAPL.US,2025-05-30,22:00:09,200.1,201.5,198.0,199.9,900
`
	quotes, err := parseQuoteCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("quotes = %d", len(quotes))
	}

	q := quotes[0]
	if q.Symbol != "TSLA.US" {
		t.Errorf("symbol = %q", q.Symbol)
	}
	if q.Open == nil || *q.Open != 345.6 {
		t.Errorf("open = %v", q.Open)
	}
	if q.Close == nil || *q.Close != 352.2 {
		t.Errorf("close = %v", q.Close)
	}
	if q.Volume == nil || *q.Volume != 12345678 {
		t.Errorf("volume = %v", q.Volume)
	}
	if q.Date != "2025-05-30" || q.Time != "22:00:09" {
		t.Errorf("date/time = %q %q", q.Date, q.Time)
	}
}

func TestParseQuoteCSVNoData(t *testing.T) {
	// Unknown symbols come back with N/D in every numeric field.
	csv := `Symbol,Date,Time,Open,High,Low,Close,Volume
BOGUS.US,N/D,N/D,N/D,N/D,N/D,N/D,N/D
`
	quotes, err := parseQuoteCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("quotes = %d", len(quotes))
	}
	q := quotes[0]
	if q.Open != nil || q.High != nil || q.Low != nil || q.Close != nil || q.Volume != nil {
		t.Errorf("expected nil numerics, got %+v", q)
	}
	if q.Symbol != "BOGUS.US" {
		t.Errorf("symbol = %q", q.Symbol)
	}
}

func TestParseQuoteCSVEmpty(t *testing.T) {
	if _, err := parseQuoteCSV(strings.NewReader("Symbol,Date,Time\n")); err == nil {
		t.Error("expected error for header-only CSV")
	}
	if _, err := parseQuoteCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty CSV")
	}
}

func TestParseQuoteCSVLowercasesSymbolInput(t *testing.T) {
	// stooq echoes lowercase symbols back; display wants them upper.
	csv := "Symbol,Date,Time,Open,High,Low,Close,Volume\ntsla.us,2025-05-30,22:00:09,1,2,0.5,1.5,10\n"
	quotes, err := parseQuoteCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if quotes[0].Symbol != "TSLA.US" {
		t.Errorf("symbol = %q", quotes[0].Symbol)
	}
}
