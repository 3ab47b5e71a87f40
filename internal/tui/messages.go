package tui

import (
	"time"

	"github.com/dmoreira/worldstatus/internal/cache"
)

// tickMsg drives the 1-second scheduler/render cadence.
type tickMsg time.Time

// fetchDoneMsg is the completion slot for one source's fetch: exactly one
// arrives per issued fetch, carrying either the new cache entry or the
// error.
type fetchDoneMsg struct {
	source string
	entry  cache.Entry
	err    error
}
