package cache

import "time"

// Entry is one cached fetch result. Payload is opaque to the cache;
// callers decode it and treat a decode failure as a miss.
type Entry struct {
	Source    string
	Payload   []byte
	FetchedAt time.Time
}
