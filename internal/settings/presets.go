package settings

import "strings"

// Built-in handle presets. A "+name" entry in the allowed-handle list
// expands to the preset's handles; user-defined presets from the settings
// file take priority over these on a name clash.
var builtinPresets = map[string][]string{
	"canada-news": {"CBCNews", "CTVNews", "globeandmail", "CP24", "TorontoStar"},
	"markets":     {"Reuters", "business", "WSJmarkets", "FT", "TheTerminal"},
	"tech":        {"TechCrunch", "verge", "arstechnica", "WIRED"},
}

// PresetNames lists the built-in preset names for the settings editor.
func PresetNames() []string {
	return []string{"canada-news", "markets", "tech"}
}

// ExpandHandles resolves "+preset" entries against user and built-in
// presets, drops duplicates keeping the first occurrence, and truncates
// to MaxAllowedHandles. Expansion is deterministic: input order is
// preserved and trailing entries are the ones dropped.
func ExpandHandles(in []string, userPresets map[string][]string) []string {
	var expanded []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if name, ok := strings.CutPrefix(v, "+"); ok {
			if handles, found := userPresets[name]; found {
				expanded = append(expanded, handles...)
				continue
			}
			if handles, found := builtinPresets[name]; found {
				expanded = append(expanded, handles...)
				continue
			}
			// Unknown preset names are dropped rather than treated as
			// literal handles.
			continue
		}
		expanded = append(expanded, v)
	}

	seen := make(map[string]bool, len(expanded))
	var out []string
	for _, h := range expanded {
		key := strings.ToLower(h)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
		if len(out) == MaxAllowedHandles {
			break
		}
	}
	return out
}
