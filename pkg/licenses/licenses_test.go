package licenses

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		wantSPDX string
	}{
		{"MIT", "MIT"},
		{"Apache-2.0", "Apache-2.0"},
		{"MIT License", "MIT"},
		{"new BSD license", "BSD-3-Clause"},
		{"Some Custom License", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lookup(tt.name)
			if got.SPDX != tt.wantSPDX {
				t.Errorf("Lookup(%q).SPDX = %q, want %q", tt.name, got.SPDX, tt.wantSPDX)
			}
			if got.Name != tt.name {
				t.Errorf("Lookup(%q).Name = %q", tt.name, got.Name)
			}
		})
	}
}

func TestParseExpression(t *testing.T) {
	got := Parse("MIT OR Apache-2.0")
	if len(got) != 2 {
		t.Fatalf("Expected 2 licenses, got %d: %v", len(got), got)
	}
	seen := map[string]bool{}
	for _, l := range got {
		seen[l.SPDX] = true
	}
	if !seen["MIT"] || !seen["Apache-2.0"] {
		t.Errorf("Unexpected licenses: %v", got)
	}
}

func TestParseCommaList(t *testing.T) {
	got := Parse("MIT License, Some Custom License")
	if len(got) != 2 {
		t.Fatalf("Expected 2 licenses, got %d: %v", len(got), got)
	}
	if got[0].String() != "MIT" {
		t.Errorf("Expected MIT, got %s", got[0])
	}
	if got[1].Known() {
		t.Errorf("Did not expect %q to be known", got[1].Name)
	}
	if got[1].String() != "Some Custom License" {
		t.Errorf("Unknown license should render its name, got %s", got[1])
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse("  "); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}
