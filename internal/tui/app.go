package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmoreira/worldstatus/internal/cache"
	"github.com/dmoreira/worldstatus/internal/logging"
	"github.com/dmoreira/worldstatus/internal/providers"
	"github.com/dmoreira/worldstatus/internal/scheduler"
	"github.com/dmoreira/worldstatus/internal/settings"
)

type mode int

const (
	modeDash mode = iota
	modeSettings
	modeHelp
)

const fetchTimeout = 90 * time.Second

// App is the single control loop: it reads keys, ticks the scheduler,
// hands fetches off as commands, and re-renders once a second. It never
// blocks on network I/O itself.
type App struct {
	store  *settings.Store
	db     *cache.Cache
	client *providers.Client
	sched  *scheduler.Scheduler

	// entries is the display-side snapshot of the cache, keyed by
	// source. Only fetch completions replace a value.
	entries map[string]*cache.Entry

	width  int
	height int
	now    time.Time
	mode   mode
	scroll int
	status string

	spinner spinner.Model
	form    settingsForm
}

// RunOpts holds all parameters for launching the dashboard.
type RunOpts struct {
	Store *settings.Store
	DB    *cache.Cache
}

func NewApp(opts RunOpts) *App {
	cfg := opts.Store.Current()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	sched := scheduler.New(cfg.Sources(), scheduler.Config{
		TTL: func(source string) time.Duration {
			return opts.Store.Current().TTL(source)
		},
	})

	entries := make(map[string]*cache.Entry)
	for _, source := range cfg.Sources() {
		e, err := opts.DB.Get(source)
		if err != nil || e == nil {
			continue
		}
		entries[source] = e
		sched.Seed(source, e.FetchedAt)
	}

	return &App{
		store:   opts.Store,
		db:      opts.DB,
		client:  providers.New(cfg.APIKey),
		sched:   sched,
		entries: entries,
		now:     time.Now(),
		spinner: sp,
	}
}

func (a *App) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd captures everything the fetch needs into the closure so the
// command goroutine never reaches back into the model.
func (a *App) fetchCmd(source string) tea.Cmd {
	cfg := a.store.Current()
	client := a.client
	db := a.db
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		payload, err := client.Fetch(ctx, source, cfg)
		if err != nil {
			return fetchDoneMsg{source: source, err: err}
		}
		entry, err := db.Put(source, payload)
		if err != nil {
			return fetchDoneMsg{source: source, err: err}
		}
		return fetchDoneMsg{source: source, entry: entry}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tickMsg:
		a.now = time.Time(msg)
		cmds := []tea.Cmd{tickCmd()}
		for _, source := range a.sched.Tick() {
			logging.Debug("fetch issued", "source", source)
			cmds = append(cmds, a.fetchCmd(source))
		}
		if a.sched.Fetching() {
			cmds = append(cmds, a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case fetchDoneMsg:
		if msg.err != nil {
			logging.Warn("fetch failed", "source", msg.source, "err", msg.err)
			a.sched.Complete(msg.source, time.Time{}, msg.err)
			return a, nil
		}
		a.sched.Complete(msg.source, msg.entry.FetchedAt, nil)
		entry := msg.entry
		a.entries[msg.source] = &entry
		return a, nil

	case spinner.TickMsg:
		if a.sched.Fetching() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.mode {
	case modeSettings:
		return a.handleSettingsKey(msg)
	case modeHelp:
		switch msg.String() {
		case "?", "esc", "q":
			a.mode = modeDash
		}
		return a, nil
	}

	a.status = ""
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "r":
		// Manual refresh covers all sources; a source already fetching
		// keeps its in-flight call and gets no second one.
		var cmds []tea.Cmd
		for _, source := range a.sched.Sources() {
			if a.sched.ForceRefresh(source) {
				cmds = append(cmds, a.fetchCmd(source))
			}
		}
		if len(cmds) > 0 {
			a.status = "refreshing..."
			cmds = append(cmds, a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)
	case "s":
		a.mode = modeSettings
		a.form = newSettingsForm(a.store.Current())
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	case "j", "down":
		a.scroll++
		return a, nil
	case "k", "up":
		if a.scroll > 0 {
			a.scroll--
		}
		return a, nil
	case "g":
		a.scroll = 0
		return a, nil
	}
	return a, nil
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		action formAction
		cmd    tea.Cmd
	)
	a.form, action, cmd = a.form.update(msg)

	switch action {
	case formSave:
		a.mode = modeDash
		a.applySettings(a.form.draft)
	case formCancel:
		a.mode = modeDash
		a.status = "settings unchanged"
	}
	return a, cmd
}

// applySettings persists the edited settings and invalidates only what
// the edit actually affects: presentation-only changes re-derive on the
// next render for free, fetch-affecting changes drop the source's cache
// entry so the next tick re-fetches it.
func (a *App) applySettings(next settings.Settings) {
	old := a.store.Current()
	if err := a.store.Update(next); err != nil {
		logging.Error("saving settings", "err", err)
		a.status = "save failed: " + err.Error()
		return
	}
	a.status = "settings saved"

	for _, source := range settings.FetchAffecting(old, a.store.Current()) {
		if err := a.db.Invalidate(source); err != nil {
			logging.Warn("invalidating cache", "source", source, "err", err)
		}
		delete(a.entries, source)
		a.sched.Invalidate(source)
	}
}

func (a *App) withBottomBar(content string) string {
	bar := a.renderStatusBar()
	lines := strings.Split(content, "\n")
	if a.scroll > 0 && a.mode == modeDash {
		if a.scroll >= len(lines) {
			a.scroll = len(lines) - 1
		}
		lines = lines[a.scroll:]
	}
	for len(lines) < a.height-1 {
		lines = append(lines, "")
	}
	if len(lines) >= a.height {
		lines = lines[:a.height-1]
	}
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return titleStyle.Render("  worldstatus")
	}

	switch a.mode {
	case modeSettings:
		return a.withBottomBar(a.form.view(a.width, a.height))
	case modeHelp:
		return a.withBottomBar(a.renderHelp())
	}
	return a.withBottomBar(a.renderDashboard())
}

// Run starts the dashboard.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
