// Package scheduler decides, per source, when a background fetch is due.
// It is pure bookkeeping: the interaction loop calls Tick every second,
// starts a fetch for each returned source, and reports the outcome back
// through Complete. The scheduler itself never does I/O.
package scheduler

import (
	"time"
)

type State int

const (
	// Fresh: cache valid, nothing to do.
	Fresh State = iota
	// Stale: cache expired or absent, fetch not yet issued.
	Stale
	// Fetching: exactly one fetch in flight.
	Fetching
	// Failed: last fetch errored; prior cache, if any, keeps displaying.
	Failed
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Fetching:
		return "fetching"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type sourceState struct {
	state     State
	fetchedAt time.Time
	failedAt  time.Time
	lastErr   error
}

// Config wires the scheduler's dependencies. TTL is consulted on every
// tick so settings edits take effect without rebuilding the scheduler.
type Config struct {
	TTL     func(source string) time.Duration
	Backoff time.Duration
	Now     func() time.Time
}

type Scheduler struct {
	cfg     Config
	order   []string
	sources map[string]*sourceState
}

const defaultBackoff = time.Minute

func New(sources []string, cfg Config) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	s := &Scheduler{
		cfg:     cfg,
		order:   append([]string(nil), sources...),
		sources: make(map[string]*sourceState, len(sources)),
	}
	for _, name := range sources {
		s.sources[name] = &sourceState{state: Stale}
	}
	return s
}

// Seed primes a source from a cache entry that survived restart. The
// source starts Fresh and ages out naturally.
func (s *Scheduler) Seed(source string, fetchedAt time.Time) {
	st, ok := s.sources[source]
	if !ok {
		return
	}
	st.state = Fresh
	st.fetchedAt = fetchedAt
}

// Tick advances every source one step and returns the sources whose
// fetch should be started now, already marked Fetching. Each source is
// scheduled independently; a slow or failing source never holds back the
// others.
func (s *Scheduler) Tick() []string {
	now := s.cfg.Now()
	var due []string
	for _, name := range s.order {
		st := s.sources[name]
		switch st.state {
		case Fresh:
			if now.Sub(st.fetchedAt) >= s.cfg.TTL(name) {
				st.state = Stale
			}
		case Failed:
			if now.Sub(st.failedAt) >= s.cfg.Backoff {
				st.state = Stale
			}
		}
		if st.state == Stale {
			st.state = Fetching
			due = append(due, name)
		}
	}
	return due
}

// Complete applies a fetch outcome. Success moves the source to Fresh
// with the given fetch time; failure moves it to Failed without touching
// fetchedAt, so the last-known-good entry keeps rendering.
func (s *Scheduler) Complete(source string, fetchedAt time.Time, err error) {
	st, ok := s.sources[source]
	if !ok {
		return
	}
	if err != nil {
		st.state = Failed
		st.failedAt = s.cfg.Now()
		st.lastErr = err
		return
	}
	st.state = Fresh
	st.fetchedAt = fetchedAt
	st.lastErr = nil
}

// ForceRefresh moves a source to Fetching regardless of TTL and reports
// whether the caller should start a fetch. A refresh while already
// Fetching is a no-op: at most one fetch per source is ever outstanding,
// and extra triggers are suppressed, not queued.
func (s *Scheduler) ForceRefresh(source string) bool {
	st, ok := s.sources[source]
	if !ok || st.state == Fetching {
		return false
	}
	st.state = Fetching
	return true
}

// Invalidate marks a source stale immediately, used when a settings edit
// changes its fetch parameters. No-op while a fetch is in flight.
func (s *Scheduler) Invalidate(source string) {
	st, ok := s.sources[source]
	if !ok || st.state == Fetching {
		return
	}
	st.state = Stale
	st.fetchedAt = time.Time{}
}

func (s *Scheduler) State(source string) State {
	if st, ok := s.sources[source]; ok {
		return st.state
	}
	return Stale
}

// LastErr returns the most recent fetch error, or nil when the source is
// healthy.
func (s *Scheduler) LastErr(source string) error {
	if st, ok := s.sources[source]; ok {
		return st.lastErr
	}
	return nil
}

// Fetching reports whether any source currently has a fetch in flight.
func (s *Scheduler) Fetching() bool {
	for _, st := range s.sources {
		if st.state == Fetching {
			return true
		}
	}
	return false
}

// Sources returns the scheduled source names in display order.
func (s *Scheduler) Sources() []string {
	return s.order
}
