package pipeline

import (
	"fmt"
	"time"

	"github.com/dmoreira/worldstatus/internal/providers"
)

// Weather renders a report as two summary lines.
func Weather(r providers.WeatherReport) []string {
	first := fmt.Sprintf("%s  Temp %s (Feels %s)",
		r.Description, FormatTemp(&r.Temperature), FormatTemp(r.Apparent))
	second := fmt.Sprintf("Humidity %s%%  Wind %.0f km/h %s",
		formatOptional(r.Humidity, 0), r.WindSpeed, WindDirection(r.WindDir))
	return []string{first, second}
}

// FormatTemp renders a temperature or N/A.
func FormatTemp(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1fC", *v)
}

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindDirection renders degrees with an 8-point compass label.
func WindDirection(deg *float64) string {
	if deg == nil {
		return "N/A"
	}
	idx := int((*deg+22.5)/45.0) % 8
	if idx < 0 {
		idx += 8
	}
	return fmt.Sprintf("%.0fdeg %s", *deg, compassPoints[idx])
}

// QuoteRow is one formatted quote with its movement direction so the
// renderer can color it (+1 up, -1 down, 0 flat/unknown).
type QuoteRow struct {
	Text      string
	Direction int
}

// Quotes renders quote rows with the close, day change, range and a
// compact volume. Change is computed against the open.
func Quotes(quotes []providers.Quote) []QuoteRow {
	rows := make([]QuoteRow, 0, len(quotes))
	for _, q := range quotes {
		var (
			change *float64
			pct    *float64
			arrow  = "•"
			dir    int
		)
		if q.Open != nil && q.Close != nil {
			c := *q.Close - *q.Open
			change = &c
			if *q.Open != 0 {
				p := c / *q.Open * 100.0
				pct = &p
			}
			switch {
			case c > 0:
				arrow, dir = "▲", 1
			case c < 0:
				arrow, dir = "▼", -1
			}
		}
		text := fmt.Sprintf("%-8s %s %s %s (%s%%) R %s-%s V %s",
			q.Symbol, arrow,
			formatOptional(q.Close, 2),
			formatOptional(change, 2),
			formatOptional(pct, 1),
			formatOptional(q.Low, 2),
			formatOptional(q.High, 2),
			FormatVolume(q.Volume))
		rows = append(rows, QuoteRow{Text: text, Direction: dir})
	}
	return rows
}

func formatOptional(v *float64, digits int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", digits, *v)
}

// FormatVolume renders share volume compactly: 1.2B, 34.5M, 6.7K.
func FormatVolume(v *float64) string {
	if v == nil {
		return "N/A"
	}
	n := *v
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// Headlines renders feed items as "title  feed · age" lines, truncated
// to limit entries.
func Headlines(items []providers.Headline, width, limit int, now time.Time) []string {
	if limit <= 0 {
		limit = 8
	}
	var lines []string
	for _, it := range items {
		if len(lines) == limit {
			break
		}
		line := it.Title + "  " + it.Feed + " · " + RelativeTime(it.Published, now)
		lines = append(lines, Truncate(line, width))
	}
	return lines
}

// Truncate shortens a string to n runes with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
