package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmoreira/worldstatus/internal/settings"
)

// NewsClient talks to the xAI chat API with live X search enabled. The
// model runs the search tool itself and replies with a JSON array of
// posts, which is the only shape this client accepts.
type NewsClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

func NewNewsClient(apiKey string) *NewsClient {
	return &NewsClient{
		baseURL: "https://api.x.ai/v1/chat/completions",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		limiter: rate.NewLimiter(rate.Every(15*time.Second), 1),
	}
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	SearchParameters *searchParams `json:"search_parameters,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type searchParams struct {
	Mode             string         `json:"mode"`
	MaxSearchResults int            `json:"max_search_results,omitempty"`
	FromDate         string         `json:"from_date,omitempty"`
	Sources          []searchSource `json:"sources"`
}

type searchSource struct {
	Type            string   `json:"type"`
	IncludedHandles []string `json:"included_x_handles,omitempty"`
	ExcludedHandles []string `json:"excluded_x_handles,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// rawPost matches the JSON the model is instructed to emit. created_at is
// parsed leniently; an unparseable timestamp yields a zero time rather
// than dropping the post.
type rawPost struct {
	Text         string `json:"text"`
	AuthorHandle string `json:"author_handle"`
	CreatedAt    string `json:"created_at"`
	URL          string `json:"url"`
}

// Fetch searches X for recent posts about the configured query and, when
// posts come back, asks the model for a one-line summary. The summary is
// best-effort: its failure never fails the fetch.
func (n *NewsClient) Fetch(ctx context.Context, cfg settings.Settings, now time.Time) (NewsPayload, error) {
	if n.apiKey == "" {
		return NewsPayload{}, ErrCredentialMissing
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return NewsPayload{}, err
	}

	content, err := n.chat(ctx, cfg.Model, searchPrompt(cfg), newsSearchParams(cfg, now))
	if err != nil {
		return NewsPayload{}, err
	}

	posts, err := parsePosts(content)
	if err != nil {
		return NewsPayload{}, err
	}

	payload := NewsPayload{Posts: posts}
	if len(posts) > 0 && cfg.SummaryPrompt != "" {
		if summary, err := n.chat(ctx, cfg.Model, summaryPrompt(cfg.SummaryPrompt, posts), nil); err == nil {
			payload.Summary = strings.TrimSpace(summary)
		}
	}
	return payload, nil
}

// searchPrompt embeds the include/exclude keywords into the query text the
// way a search box would ("term -excluded").
func searchPrompt(cfg settings.Settings) string {
	parts := []string{cfg.Query}
	parts = append(parts, cfg.IncludeKeywords...)
	for _, term := range cfg.ExcludeKeywords {
		parts = append(parts, "-"+term)
	}
	query := strings.TrimSpace(strings.Join(parts, " "))

	return fmt.Sprintf(
		"Search X for recent posts about: %s. Return a JSON array with up to %d items. "+
			"Each item must include: text, author_handle, created_at, url. "+
			"If a field is unknown, use an empty string. Return only JSON.",
		query, cfg.MaxResults,
	)
}

// newsSearchParams mirrors the provider's constraint that handle allow and
// deny lists are mutually exclusive: when both are set locally, the allow
// list wins server-side and the pipeline applies the deny list.
func newsSearchParams(cfg settings.Settings, now time.Time) *searchParams {
	src := searchSource{Type: "x"}
	switch {
	case len(cfg.AllowedHandles) > 0:
		src.IncludedHandles = cfg.AllowedHandles
	case len(cfg.ExcludedHandles) > 0:
		src.ExcludedHandles = cfg.ExcludedHandles
	}

	sp := &searchParams{
		Mode:             "on",
		MaxSearchResults: cfg.MaxResults,
		Sources:          []searchSource{src},
	}
	if cfg.LookbackHours > 0 {
		sp.FromDate = now.Add(-cfg.Lookback()).Format("2006-01-02")
	}
	return sp
}

func summaryPrompt(prompt string, posts []Post) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString(" Posts:\n")
	for _, p := range posts {
		sb.WriteString("- ")
		sb.WriteString(p.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (n *NewsClient) chat(ctx context.Context, model, prompt string, sp *searchParams) (string, error) {
	body, _ := json.Marshal(chatRequest{
		Model:            model,
		Messages:         []chatMessage{{Role: "user", Content: prompt}},
		SearchParameters: sp,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("xai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("xai API %d: %s", resp.StatusCode, string(b))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty xai response")
	}
	return cr.Choices[0].Message.Content, nil
}

// parsePosts validates the model's reply at the fetch boundary so
// everything downstream works with typed posts.
func parsePosts(content string) ([]Post, error) {
	content = strings.TrimSpace(content)
	// Models occasionally fence the JSON despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []rawPost
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid search response: %w", err)
	}

	posts := make([]Post, 0, len(raw))
	for _, r := range raw {
		posts = append(posts, Post{
			Text:         r.Text,
			AuthorHandle: strings.TrimPrefix(r.AuthorHandle, "@"),
			CreatedAt:    parseTimestamp(r.CreatedAt),
			URL:          r.URL,
		})
	}
	return posts, nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
