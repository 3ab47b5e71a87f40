package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmoreira/worldstatus/internal/settings"
)

type formAction int

const (
	formNone formAction = iota
	formSave
	formCancel
)

type formField struct {
	label string
	value func(s settings.Settings) string
	apply func(s *settings.Settings, input string) error
}

// settingsForm is the modal settings editor: a field list with one
// textinput. Bounds are enforced at the edit boundary; a rejected value
// leaves the prior one in place.
type settingsForm struct {
	fields  []formField
	draft   settings.Settings
	cursor  int
	editing bool
	input   textinput.Model
	errMsg  string
}

func newSettingsForm(cur settings.Settings) settingsForm {
	ti := textinput.New()
	ti.CharLimit = 300

	return settingsForm{
		fields: formFields(),
		draft:  cur,
		input:  ti,
	}
}

func formFields() []formField {
	return []formField{
		{
			label: "Search query",
			value: func(s settings.Settings) string { return s.Query },
			apply: func(s *settings.Settings, in string) error {
				in = strings.TrimSpace(in)
				if in == "" {
					return fmt.Errorf("query cannot be empty")
				}
				s.Query = in
				return nil
			},
		},
		{
			label: "Model",
			value: func(s settings.Settings) string { return s.Model },
			apply: func(s *settings.Settings, in string) error {
				in = strings.TrimSpace(in)
				if in == "" {
					return fmt.Errorf("model cannot be empty")
				}
				s.Model = in
				return nil
			},
		},
		{
			label: "Max results",
			value: func(s settings.Settings) string { return strconv.Itoa(s.MaxResults) },
			apply: func(s *settings.Settings, in string) error {
				n, err := strconv.Atoi(strings.TrimSpace(in))
				if err != nil {
					return fmt.Errorf("max results must be a number")
				}
				if n < 1 || n > settings.MaxResultsLimit {
					return fmt.Errorf("max results must be 1-%d", settings.MaxResultsLimit)
				}
				s.MaxResults = n
				return nil
			},
		},
		{
			label: "Show links",
			value: func(s settings.Settings) string {
				if s.ShowLinks {
					return "y"
				}
				return "n"
			},
			apply: func(s *settings.Settings, in string) error {
				switch strings.ToLower(strings.TrimSpace(in)) {
				case "y", "yes", "true", "1":
					s.ShowLinks = true
				case "n", "no", "false", "0":
					s.ShowLinks = false
				default:
					return fmt.Errorf("enter y or n")
				}
				return nil
			},
		},
		{
			label: "Allowed handles",
			value: func(s settings.Settings) string { return strings.Join(s.AllowedHandles, ", ") },
			apply: func(s *settings.Settings, in string) error {
				// Presets ("+markets") expand here so the cap is visible
				// immediately rather than surprising at save time.
				s.AllowedHandles = settings.ExpandHandles(settings.ParseList(in), s.HandlePresets)
				return nil
			},
		},
		{
			label: "Excluded handles",
			value: func(s settings.Settings) string { return strings.Join(s.ExcludedHandles, ", ") },
			apply: func(s *settings.Settings, in string) error {
				s.ExcludedHandles = settings.ParseList(in)
				return nil
			},
		},
		{
			label: "Include keywords",
			value: func(s settings.Settings) string { return strings.Join(s.IncludeKeywords, ", ") },
			apply: func(s *settings.Settings, in string) error {
				s.IncludeKeywords = settings.ParseList(in)
				return nil
			},
		},
		{
			label: "Exclude keywords",
			value: func(s settings.Settings) string { return strings.Join(s.ExcludeKeywords, ", ") },
			apply: func(s *settings.Settings, in string) error {
				s.ExcludeKeywords = settings.ParseList(in)
				return nil
			},
		},
		{
			label: "Lookback hours",
			value: func(s settings.Settings) string {
				if s.LookbackHours == 0 {
					return ""
				}
				return strconv.Itoa(s.LookbackHours)
			},
			apply: func(s *settings.Settings, in string) error {
				in = strings.TrimSpace(in)
				if in == "" {
					s.LookbackHours = 0
					return nil
				}
				n, err := strconv.Atoi(in)
				if err != nil || n < 0 {
					return fmt.Errorf("lookback must be a non-negative number of hours")
				}
				s.LookbackHours = n
				return nil
			},
		},
		{
			label: "Stock symbols",
			value: func(s settings.Settings) string { return strings.Join(s.StockSymbols, ", ") },
			apply: func(s *settings.Settings, in string) error {
				var syms []string
				for _, v := range settings.ParseList(in) {
					syms = append(syms, strings.ToUpper(v))
				}
				s.StockSymbols = syms
				return nil
			},
		},
		{
			label: "Summary prompt",
			value: func(s settings.Settings) string { return s.SummaryPrompt },
			apply: func(s *settings.Settings, in string) error {
				s.SummaryPrompt = strings.TrimSpace(in)
				return nil
			},
		},
	}
}

func (f settingsForm) update(msg tea.KeyMsg) (settingsForm, formAction, tea.Cmd) {
	if f.editing {
		switch msg.String() {
		case "esc":
			f.editing = false
			f.errMsg = ""
			f.input.Blur()
			return f, formNone, nil
		case "enter":
			if err := f.fields[f.cursor].apply(&f.draft, f.input.Value()); err != nil {
				f.errMsg = err.Error()
				return f, formNone, nil
			}
			f.editing = false
			f.errMsg = ""
			f.input.Blur()
			return f, formNone, nil
		}
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return f, formNone, cmd
	}

	switch msg.String() {
	case "esc":
		return f, formCancel, nil
	case "s":
		return f, formSave, nil
	case "j", "down":
		if f.cursor < len(f.fields)-1 {
			f.cursor++
		}
	case "k", "up":
		if f.cursor > 0 {
			f.cursor--
		}
	case "enter":
		f.editing = true
		f.errMsg = ""
		f.input.SetValue(f.fields[f.cursor].value(f.draft))
		f.input.CursorEnd()
		f.input.Focus()
		return f, formNone, textinput.Blink
	}
	return f, formNone, nil
}

func (f settingsForm) view(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(formHintStyle.Render("Handles and keywords are comma-separated; +name expands a handle preset (" +
		strings.Join(settings.PresetNames(), ", ") + ")."))
	b.WriteString("\n\n")

	labelWidth := 0
	for _, fld := range f.fields {
		if len(fld.label) > labelWidth {
			labelWidth = len(fld.label)
		}
	}

	for i, fld := range f.fields {
		marker := "  "
		label := formLabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, fld.label))
		if i == f.cursor {
			marker = formSelectedStyle.Render("> ")
			label = formSelectedStyle.Render(fmt.Sprintf("%-*s", labelWidth, fld.label))
		}

		if i == f.cursor && f.editing {
			b.WriteString(marker + label + "  " + f.input.View())
		} else {
			value := fld.value(f.draft)
			if value == "" {
				value = formHintStyle.Render("(unset)")
			}
			b.WriteString(marker + label + "  " + value)
		}
		b.WriteString("\n")
	}

	if f.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  " + f.errMsg))
	}
	return b.String()
}
