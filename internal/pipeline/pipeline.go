// Package pipeline turns cached raw payloads into display-ready content
// using the current settings. Everything here is a pure function: same
// payload + settings in, same content out, and never a fetch.
package pipeline

import (
	"strings"
	"time"

	"github.com/dmoreira/worldstatus/internal/providers"
	"github.com/dmoreira/worldstatus/internal/settings"
)

// PostBlock is one rendered post: wrapped body lines, a meta line with
// the handle and time, and URL lines present only when show-links is on.
type PostBlock struct {
	TextLines []string
	Meta      string
	URLLines  []string
}

// NewsView is the derived news content for one render.
type NewsView struct {
	SummaryLines []string
	Posts        []PostBlock
}

// FilterPosts applies the display filters in their fixed order: handle
// allow/deny, then the lookback window, then keyword include/exclude,
// then truncation to max-results. Provider order is preserved; posts are
// never re-sorted.
func FilterPosts(posts []providers.Post, cfg settings.Settings, now time.Time) []providers.Post {
	allowed := toSet(cfg.AllowedHandles)
	excluded := toSet(cfg.ExcludedHandles)

	var out []providers.Post
	for _, p := range posts {
		handle := strings.ToLower(p.AuthorHandle)
		if len(allowed) > 0 && !allowed[handle] {
			continue
		}
		if excluded[handle] {
			continue
		}
		if cfg.LookbackHours > 0 && !p.CreatedAt.IsZero() && now.Sub(p.CreatedAt) > cfg.Lookback() {
			continue
		}
		if !matchesKeywords(p.Text, cfg.IncludeKeywords, cfg.ExcludeKeywords) {
			continue
		}
		out = append(out, p)
		if len(out) == cfg.MaxResults {
			break
		}
	}
	return out
}

func matchesKeywords(text string, include, exclude []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range exclude {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, kw := range include {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func toSet(in []string) map[string]bool {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]bool, len(in))
	for _, v := range in {
		out[strings.ToLower(v)] = true
	}
	return out
}

// News derives the full news view from a cached payload.
func News(payload providers.NewsPayload, cfg settings.Settings, width int, now time.Time) NewsView {
	view := NewsView{}
	if payload.Summary != "" {
		view.SummaryLines = Wrap("Summary: "+payload.Summary, width)
	}
	for _, p := range FilterPosts(payload.Posts, cfg, now) {
		block := PostBlock{
			TextLines: Wrap(p.Text, width),
			Meta:      "@" + p.AuthorHandle + " " + postTime(p.CreatedAt, now),
		}
		if cfg.ShowLinks && p.URL != "" {
			block.URLLines = Wrap(p.URL, width)
		}
		view.Posts = append(view.Posts, block)
	}
	return view
}

// postTime prefers a short clock for same-day posts and a relative age
// otherwise; a zero time renders as nothing rather than a bogus epoch.
func postTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < 24*time.Hour {
		return t.Format("15:04")
	}
	return RelativeTime(t, now)
}

// RelativeTime renders an age like "5m", "3h" or "2d".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return itoa(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return itoa(int(d.Hours())) + "h"
	case d < 7*24*time.Hour:
		return itoa(int(d.Hours()/24)) + "d"
	default:
		return t.Format("Jan 2")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// Wrap word-wraps text to the given width. Words longer than the width
// are hard-split so a pathological token cannot blow the layout.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur strings.Builder
	for _, w := range words {
		for len([]rune(w)) > width {
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			runes := []rune(w)
			lines = append(lines, string(runes[:width]))
			w = string(runes[width:])
		}
		if w == "" {
			continue
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(w)
		case len([]rune(cur.String()))+1+len([]rune(w)) <= width:
			cur.WriteString(" ")
			cur.WriteString(w)
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
