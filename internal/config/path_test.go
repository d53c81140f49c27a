package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultOutputDir(t *testing.T) {
	tests := []struct {
		name  string
		xdg   string
		home  string
		check func(string) bool
	}{
		{
			name:  "XDG_DATA_HOME override",
			xdg:   "/custom/data",
			home:  "/home/someone",
			check: func(s string) bool { return s == filepath.Join("/custom/data", "wireq", "entries") },
		},
		{
			name:  "home fallback",
			home:  "/home/someone",
			check: func(s string) bool { return strings.HasSuffix(s, filepath.Join(".wireq", "entries")) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_DATA_HOME", tt.xdg)
			t.Setenv("HOME", tt.home)
			if got := DefaultOutputDir(); !tt.check(got) {
				t.Fatalf("unexpected output dir %q", got)
			}
		})
	}
}
