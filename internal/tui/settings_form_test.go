package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmoreira/worldstatus/internal/settings"
)

func formKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func enterKey() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }
func escKey() tea.KeyMsg   { return tea.KeyMsg{Type: tea.KeyEsc} }

// typeInto drives the form through one edit cycle: open the field, replace
// its value, commit.
func typeInto(f settingsForm, value string) (settingsForm, formAction) {
	f, _, _ = f.update(enterKey())
	f.input.SetValue(value)
	f, action, _ := f.update(enterKey())
	return f, action
}

func TestFormNavigation(t *testing.T) {
	f := newSettingsForm(settings.Defaults())
	if f.cursor != 0 {
		t.Fatalf("cursor = %d", f.cursor)
	}

	f, _, _ = f.update(formKey("j"))
	f, _, _ = f.update(formKey("j"))
	if f.cursor != 2 {
		t.Errorf("cursor after jj = %d", f.cursor)
	}
	f, _, _ = f.update(formKey("k"))
	if f.cursor != 1 {
		t.Errorf("cursor after k = %d", f.cursor)
	}

	// Cursor clamps at both ends.
	for i := 0; i < 30; i++ {
		f, _, _ = f.update(formKey("j"))
	}
	if f.cursor != len(f.fields)-1 {
		t.Errorf("cursor past end: %d", f.cursor)
	}
}

func TestFormEditCommits(t *testing.T) {
	f := newSettingsForm(settings.Defaults())

	f, action := typeInto(f, "space launches")
	if action != formNone {
		t.Fatalf("action = %v", action)
	}
	if f.draft.Query != "space launches" {
		t.Errorf("draft query = %q", f.draft.Query)
	}
	if f.editing {
		t.Error("still editing after commit")
	}
}

func TestFormRejectsInvalidValue(t *testing.T) {
	f := newSettingsForm(settings.Defaults())
	// Move to the max-results field.
	f, _, _ = f.update(formKey("j"))
	f, _, _ = f.update(formKey("j"))

	before := f.draft.MaxResults
	f, _ = typeInto(f, "99")
	if f.errMsg == "" {
		t.Error("out-of-range value accepted without error")
	}
	if !f.editing {
		t.Error("rejected value should keep the field in edit mode")
	}
	if f.draft.MaxResults != before {
		t.Errorf("draft changed to %d despite rejection", f.draft.MaxResults)
	}

	// A corrected value clears the error.
	f.input.SetValue("3")
	f, _, _ = f.update(enterKey())
	if f.errMsg != "" || f.draft.MaxResults != 3 {
		t.Errorf("errMsg = %q, max results = %d", f.errMsg, f.draft.MaxResults)
	}
}

func TestFormEscCancelsFieldThenForm(t *testing.T) {
	f := newSettingsForm(settings.Defaults())

	f, _, _ = f.update(enterKey())
	f.input.SetValue("half-typed")
	f, action, _ := f.update(escKey())
	if action != formNone || f.editing {
		t.Fatalf("esc during edit: action = %v editing = %v", action, f.editing)
	}
	if f.draft.Query == "half-typed" {
		t.Error("cancelled edit leaked into the draft")
	}

	_, action, _ = f.update(escKey())
	if action != formCancel {
		t.Errorf("esc in browse mode = %v, want cancel", action)
	}
}

func TestFormSaveAction(t *testing.T) {
	f := newSettingsForm(settings.Defaults())
	_, action, _ := f.update(formKey("s"))
	if action != formSave {
		t.Errorf("action = %v, want save", action)
	}
}

func TestFormExpandsPresetsOnCommit(t *testing.T) {
	f := newSettingsForm(settings.Defaults())
	// Allowed handles is the fifth field.
	for i := 0; i < 4; i++ {
		f, _, _ = f.update(formKey("j"))
	}

	f, _ = typeInto(f, "+tech, CBCNews")
	want := []string{"TechCrunch", "verge", "arstechnica", "WIRED", "CBCNews"}
	if len(f.draft.AllowedHandles) != len(want) {
		t.Fatalf("handles = %v", f.draft.AllowedHandles)
	}
	for i, h := range want {
		if f.draft.AllowedHandles[i] != h {
			t.Errorf("handles[%d] = %q, want %q", i, f.draft.AllowedHandles[i], h)
		}
	}
}

func TestFormViewShowsValues(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Query = "visible query"
	f := newSettingsForm(cfg)

	out := f.view(80, 24)
	if !strings.Contains(out, "visible query") {
		t.Error("view missing current query value")
	}
	if !strings.Contains(out, "Settings") {
		t.Error("view missing title")
	}
	// Empty lists read as unset, not as blank space.
	if !strings.Contains(out, "(unset)") {
		t.Error("view missing unset marker")
	}
}
