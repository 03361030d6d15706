package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		files []string
		port  int
		host  string
	}{
		{"empty", nil, nil, 0, ""},
		{"repeated config", []string{"-c", "a.toml", "-config", "b.toml"}, []string{"a.toml", "b.toml"}, 0, ""},
		{"long port", []string{"-port", "9000"}, nil, 9000, ""},
		{"short port wins", []string{"-port", "9000", "-p", "9100"}, nil, 9100, ""},
		{"host", []string{"-host", "0.0.0.0"}, nil, 0, "0.0.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			if strings.Join(opts.files, ",") != strings.Join(tt.files, ",") {
				t.Errorf("files: expected %v, got %v", tt.files, opts.files)
			}
			if opts.port != tt.port {
				t.Errorf("port: expected %d, got %d", tt.port, opts.port)
			}
			if opts.host != tt.host {
				t.Errorf("host: expected %q, got %q", tt.host, opts.host)
			}
		})
	}
}

func TestParseFlags_Version(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-version"}, &out)

	if !errors.Is(err, errVersionShown) {
		t.Fatalf("expected errVersionShown, got %v", err)
	}
	if !strings.HasPrefix(out.String(), "stock-compare ") {
		t.Errorf("unexpected version output %q", out.String())
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	if _, err := parseFlags([]string{"-bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestDiscoverConfig(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "compare.toml")
	if err := os.WriteFile(present, []byte("[server]\nport = 8501\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok := discoverConfig([]string{filepath.Join(dir, "missing.toml"), dir, present})
	if !ok || got != present {
		t.Errorf("expected %s, got %q (found=%v)", present, got, ok)
	}

	if _, ok := discoverConfig([]string{filepath.Join(dir, "missing.toml")}); ok {
		t.Error("expected no match")
	}
}

func TestConfigSearchPaths_Deduplicated(t *testing.T) {
	paths := configSearchPaths()
	seen := map[string]bool{}
	for _, p := range paths {
		abs, _ := filepath.Abs(p)
		if seen[abs] {
			t.Errorf("duplicate path %s", p)
		}
		seen[abs] = true
	}
	if len(paths) == 0 || paths[len(paths)-1] != "docker/compare.toml" {
		t.Errorf("expected docker fallback last, got %v", paths)
	}
}
