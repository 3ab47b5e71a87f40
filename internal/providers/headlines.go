package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/dmoreira/worldstatus/internal/settings"
)

type HeadlinesClient struct {
	parser *gofeed.Parser
}

func NewHeadlinesClient() *HeadlinesClient {
	return &HeadlinesClient{parser: gofeed.NewParser()}
}

// Fetch pulls every configured feed concurrently and merges the items
// newest-first. Individual feed failures are tolerated as long as at
// least one feed succeeds.
func (h *HeadlinesClient) Fetch(ctx context.Context, feeds []settings.Feed) (HeadlinesPayload, error) {
	if len(feeds) == 0 {
		return HeadlinesPayload{}, nil
	}

	var (
		mu    sync.Mutex
		items []Headline
		errs  []error
		wg    sync.WaitGroup
	)

	for _, f := range feeds {
		wg.Add(1)
		go func(f settings.Feed) {
			defer wg.Done()
			got, err := h.fetchOne(ctx, f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			items = append(items, got...)
		}(f)
	}
	wg.Wait()

	if len(items) == 0 && len(errs) > 0 {
		return HeadlinesPayload{}, errs[0]
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	return HeadlinesPayload{Items: items}, nil
}

func (h *HeadlinesClient) fetchOne(ctx context.Context, f settings.Feed) ([]Headline, error) {
	feed, err := h.parser.ParseURLWithContext(f.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.Name, err)
	}

	now := time.Now()
	out := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}
		out = append(out, Headline{
			Feed:      f.Name,
			Title:     item.Title,
			URL:       item.Link,
			Published: pub,
		})
	}
	return out, nil
}
