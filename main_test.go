package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags(t *testing.T) {
	f, set, err := parseFlags([]string{"-mode=sim", "-seed=9", "-races=50", "-horse=3"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.mode != "sim" || f.seed != 9 || f.races != 50 || f.horse != 3 {
		t.Fatalf("flags = %+v", f)
	}
	if !set["seed"] || set["replay"] {
		t.Fatalf("set = %v", set)
	}

	f, set, err = parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.mode != "console" || f.races != 10000 || f.envFile != ".env" || len(set) != 0 {
		t.Fatalf("defaults = %+v, set = %v", f, set)
	}

	if _, _, err := parseFlags([]string{"-bogus"}); err == nil {
		t.Fatal("unknown flag accepted")
	}
}

func TestLoadRoster(t *testing.T) {
	specs, err := loadRoster("")
	if err != nil || len(specs) != 6 {
		t.Fatalf("default roster: %d, %v", len(specs), err)
	}

	path := filepath.Join(t.TempDir(), "roster.yaml")
	data := "horses:\n  - name: ALPHA\n    color: \"#112233\"\n    odds: 2.5\n  - name: BETA\n    color: \"#445566\"\n    odds: 4\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	specs, err = loadRoster(path)
	if err != nil {
		t.Fatalf("loadRoster: %v", err)
	}
	if len(specs) != 2 || specs[1].Name != "BETA" || specs[0].Odds.String() != "2.5" {
		t.Fatalf("specs = %+v", specs)
	}

	if _, err := loadRoster(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing roster file accepted")
	}
}
