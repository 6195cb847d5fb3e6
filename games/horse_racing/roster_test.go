package horse_racing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultRoster(t *testing.T) {
	roster := DefaultRoster()
	want := []string{"THUNDER", "LIGHTNING", "STORM", "BLAZE", "SHADOW", "COMET"}
	if len(roster) != len(want) {
		t.Fatalf("Expected %d horses, got %d", len(want), len(roster))
	}
	for i, name := range want {
		if roster[i].Name != name {
			t.Errorf("Expected lane %d to be %s, got %s", i, name, roster[i].Name)
		}
	}
	if !roster[0].Odds.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("Expected THUNDER at 3.5, got %s", roster[0].Odds)
	}
	if err := ValidateRoster(roster); err != nil {
		t.Errorf("Default roster invalid: %v", err)
	}
}

func TestLoadRoster(t *testing.T) {
	data := []byte(`
horses:
  - name: " RED RUM "
    color: "#AA0000"
    odds: 4.25
  - name: ARKLE
    color: "#00aa00"
    odds: 2
`)
	roster, err := LoadRoster(data)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("Expected 2 horses, got %d", len(roster))
	}
	if roster[0].Name != "RED RUM" {
		t.Errorf("Expected trimmed name, got %q", roster[0].Name)
	}
	if !roster[0].Odds.Equal(decimal.RequireFromString("4.3")) {
		t.Errorf("Expected odds rounded to 4.3, got %s", roster[0].Odds)
	}
	if !roster[1].Odds.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected odds 2, got %s", roster[1].Odds)
	}
}

func TestLoadRosterRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "horses: []"},
		{"missing name", "horses:\n  - color: \"#000000\"\n    odds: 3\n"},
		{"bad color", "horses:\n  - name: X\n    color: red\n    odds: 3\n"},
		{"negative odds", "horses:\n  - name: X\n    color: \"#000000\"\n    odds: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoster([]byte(tt.data))
			if !errors.Is(err, ErrInvalidRoster) {
				t.Errorf("Expected ErrInvalidRoster, got %v", err)
			}
		})
	}

	if _, err := LoadRoster([]byte("horses: [")); err == nil || errors.Is(err, ErrInvalidRoster) {
		t.Errorf("Expected a parse error, got %v", err)
	}
}

func TestRandomOdds(t *testing.T) {
	tests := []struct {
		draw float64
		want string
	}{
		{0, "2"},
		{0.5, "3.5"},
		{0.999, "5"},
		{0.3, "2.9"},
	}
	for _, tt := range tests {
		got := RandomOdds(&scriptedRNG{vals: []float64{tt.draw}})
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("RandomOdds(%v) = %s, want %s", tt.draw, got, tt.want)
		}
	}
}
