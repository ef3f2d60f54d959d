package main

import (
	"testing"
)

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition("256", "-1024.5")
	if err != nil {
		t.Fatalf("parsePosition: %v", err)
	}
	if pos.X != 256 || pos.Y != 0 || pos.Z != -1024.5 {
		t.Errorf("pos = %+v", pos)
	}
	if _, err := parsePosition("east", "0"); err == nil {
		t.Error("expected error for invalid x")
	}
	if _, err := parsePosition("0", ""); err == nil {
		t.Error("expected error for empty z")
	}
}

func TestMatchEntry(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"data/prontera.gnd", "", true},
		{"data/prontera.gnd", "*.gnd", true},
		{"data/texture/grass.bmp", "*.gnd", false},
		{"data/texture/grass.bmp", "texture/", true},
		{"data/prontera.rsw", "pront*", true},
	}
	for _, tt := range tests {
		if got := matchEntry(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchEntry(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}
