package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmoreira/worldstatus/internal/cache"
	"github.com/dmoreira/worldstatus/internal/pipeline"
	"github.com/dmoreira/worldstatus/internal/providers"
	"github.com/dmoreira/worldstatus/internal/scheduler"
	"github.com/dmoreira/worldstatus/internal/settings"
)

// decodePayload unpacks a cached payload into its typed shape. A corrupt
// payload reads as a miss, same as the cache contract.
func decodePayload[T any](e *cache.Entry) (T, bool) {
	var v T
	if e == nil {
		return v, false
	}
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return v, false
	}
	return v, true
}

func (a *App) renderDashboard() string {
	cfg := a.store.Current()
	width := a.width - 2

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.Local
	}
	now := a.now.In(loc)

	var lines []string
	lines = append(lines, titleStyle.Render("World Status"))
	lines = append(lines, clockStyle.Render(now.Format("Monday, January 2 2006 15:04:05")))
	lines = append(lines, "")

	lines = append(lines, a.renderWeather(cfg, width)...)
	lines = append(lines, "")
	lines = append(lines, a.renderStocks(width)...)
	lines = append(lines, "")
	lines = append(lines, a.renderNews(cfg, width, now)...)
	if len(cfg.HeadlineFeeds) > 0 {
		lines = append(lines, "")
		lines = append(lines, a.renderHeadlines(width, now)...)
	}

	return strings.Join(lines, "\n")
}

// sectionHeader renders a source's title with its staleness marker: a
// failed source keeps showing last-known-good content, annotated stale.
func (a *App) sectionHeader(title, source string) string {
	h := sectionStyle.Render(title)
	if a.sched.State(source) == scheduler.Failed && a.entries[source] != nil {
		h += " " + staleStyle.Render("(stale)")
	}
	return h
}

func (a *App) sourceError(source string) string {
	err := a.sched.LastErr(source)
	if err == nil {
		return ""
	}
	if errors.Is(err, providers.ErrCredentialMissing) {
		return errorStyle.Render("  No API key — set WORLDSTATUS_API_KEY or rerun onboarding")
	}
	return errorStyle.Render("  Error: " + err.Error())
}

func (a *App) renderWeather(cfg settings.Settings, width int) []string {
	lines := []string{a.sectionHeader("Weather", settings.SourceWeather)}
	if e := a.sourceError(settings.SourceWeather); e != "" {
		lines = append(lines, e)
		if a.entries[settings.SourceWeather] == nil {
			return lines
		}
	}

	report, ok := decodePayload[providers.WeatherReport](a.entries[settings.SourceWeather])
	if !ok {
		lines = append(lines, metaStyle.Render("  Waiting for data..."))
		return lines
	}
	for _, l := range pipeline.Weather(report) {
		lines = append(lines, bodyStyle.Render("  "+pipeline.Truncate(l, width)))
	}
	return lines
}

func (a *App) renderStocks(width int) []string {
	lines := []string{a.sectionHeader("Stocks", settings.SourceStocks)}
	if e := a.sourceError(settings.SourceStocks); e != "" {
		lines = append(lines, e)
		if a.entries[settings.SourceStocks] == nil {
			return lines
		}
	}

	payload, ok := decodePayload[providers.StocksPayload](a.entries[settings.SourceStocks])
	if !ok {
		lines = append(lines, metaStyle.Render("  Waiting for data..."))
		return lines
	}
	if len(payload.Quotes) == 0 {
		lines = append(lines, metaStyle.Render("  No symbols configured"))
		return lines
	}
	for _, row := range pipeline.Quotes(payload.Quotes) {
		text := "  " + pipeline.Truncate(row.Text, width)
		switch row.Direction {
		case 1:
			lines = append(lines, upStyle.Render(text))
		case -1:
			lines = append(lines, downStyle.Render(text))
		default:
			lines = append(lines, bodyStyle.Render(text))
		}
	}
	return lines
}

func (a *App) renderNews(cfg settings.Settings, width int, now time.Time) []string {
	header := a.sectionHeader(
		fmt.Sprintf("News — X search: %s", cfg.Query), settings.SourceNews)
	lines := []string{header}

	if e := a.sourceError(settings.SourceNews); e != "" {
		lines = append(lines, e)
		if a.entries[settings.SourceNews] == nil {
			return lines
		}
	}

	payload, ok := decodePayload[providers.NewsPayload](a.entries[settings.SourceNews])
	if !ok {
		lines = append(lines, metaStyle.Render("  Waiting for data..."))
		return lines
	}

	view := pipeline.News(payload, cfg, width-2, now)
	if len(view.Posts) == 0 {
		lines = append(lines, metaStyle.Render("  No results"))
		return lines
	}

	for _, l := range view.SummaryLines {
		lines = append(lines, bodyStyle.Render("  "+l))
	}
	if len(view.SummaryLines) > 0 {
		lines = append(lines, "")
	}
	for _, post := range view.Posts {
		for _, l := range post.TextLines {
			lines = append(lines, bodyStyle.Render("  "+l))
		}
		lines = append(lines, metaStyle.Render("  "+post.Meta))
		for _, l := range post.URLLines {
			lines = append(lines, linkStyle.Render("  "+l))
		}
		lines = append(lines, "")
	}
	// Drop the trailing separator so sections stay tight.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (a *App) renderHeadlines(width int, now time.Time) []string {
	lines := []string{a.sectionHeader("Headlines", settings.SourceHeadlines)}
	if e := a.sourceError(settings.SourceHeadlines); e != "" {
		lines = append(lines, e)
		if a.entries[settings.SourceHeadlines] == nil {
			return lines
		}
	}

	payload, ok := decodePayload[providers.HeadlinesPayload](a.entries[settings.SourceHeadlines])
	if !ok {
		lines = append(lines, metaStyle.Render("  Waiting for data..."))
		return lines
	}
	for _, l := range pipeline.Headlines(payload.Items, width, 8, now) {
		lines = append(lines, bodyStyle.Render("  "+l))
	}
	return lines
}

func (a *App) renderStatusBar() string {
	left := a.status
	if left == "" {
		var states []string
		for _, source := range a.sched.Sources() {
			states = append(states, source+" "+a.sched.State(source).String())
		}
		left = strings.Join(states, " · ")
	}
	if a.sched.Fetching() {
		left = a.spinner.View() + " " + left
	}

	right := " r refresh  s settings  ? help  q quit "
	if a.mode == modeSettings {
		right = " enter edit  s save  esc cancel "
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + fmt.Sprintf("%*s", gap, "") + right
	return statusBarStyle.Width(a.width).Render(bar)
}

func (a *App) renderHelp() string {
	title := titleStyle.Render("worldstatus")
	dim := helpDimStyle

	help := title + dim.Render(" — Keyboard Shortcuts") + "\n\n" +
		dim.Render("Dashboard") + "\n" +
		"  r             Refresh all sources now\n" +
		"  s             Edit settings\n" +
		"  j/k, ↑/↓     Scroll\n" +
		"  g             Jump to top\n\n" +
		dim.Render("Settings Editor") + "\n" +
		"  j/k, ↑/↓     Move between fields\n" +
		"  enter         Edit field / commit value\n" +
		"  s             Save and close\n" +
		"  esc           Cancel edit / discard changes\n\n" +
		dim.Render("General") + "\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := helpCardStyle.Render(help)
	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, card)
}
