package settings

import "testing"

func TestExpandHandles(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		presets map[string][]string
		want    []string
	}{
		{
			name: "plain handles pass through",
			in:   []string{"CBCNews", "Reuters"},
			want: []string{"CBCNews", "Reuters"},
		},
		{
			name: "builtin preset expands in place",
			in:   []string{"+tech", "Reuters"},
			want: []string{"TechCrunch", "verge", "arstechnica", "WIRED", "Reuters"},
		},
		{
			name:    "user preset shadows builtin",
			in:      []string{"+tech"},
			presets: map[string][]string{"tech": {"mytech"}},
			want:    []string{"mytech"},
		},
		{
			name: "unknown preset dropped",
			in:   []string{"+nope", "CBCNews"},
			want: []string{"CBCNews"},
		},
		{
			name: "case-insensitive dedupe keeps first",
			in:   []string{"Reuters", "reuters", "CBCNews"},
			want: []string{"Reuters", "CBCNews"},
		},
		{
			name: "blank entries skipped",
			in:   []string{" ", "CBCNews", ""},
			want: []string{"CBCNews"},
		},
	}

	for _, tt := range tests {
		got := ExpandHandles(tt.in, tt.presets)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: [%d] = %q, want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestExpandHandlesTruncatesAtCap(t *testing.T) {
	// canada-news (5) + markets (5) + tech (4) = 14 handles before the cap.
	got := ExpandHandles([]string{"+canada-news", "+markets", "+tech"}, nil)
	if len(got) != MaxAllowedHandles {
		t.Fatalf("expected %d handles, got %d: %v", MaxAllowedHandles, len(got), got)
	}
	// Deterministic: leading entries survive, trailing are dropped.
	if got[0] != "CBCNews" || got[MaxAllowedHandles-1] != "TheTerminal" {
		t.Errorf("unexpected truncation order: %v", got)
	}
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if len(names) != len(builtinPresets) {
		t.Fatalf("names = %v", names)
	}
	for _, n := range names {
		if _, ok := builtinPresets[n]; !ok {
			t.Errorf("unknown preset name %q", n)
		}
	}
}
