package horse_racing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// HorseSpec describes a roster entry before it joins a race.
type HorseSpec struct {
	Name  string          `yaml:"name"`
	Color string          `yaml:"color"`
	Odds  decimal.Decimal `yaml:"-"`
}

// Odds are redrawn between races from [minOdds, minOdds+oddsSpread).
const (
	minOdds    = 2.0
	oddsSpread = 3.0
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// DefaultRoster is the stable six-horse field.
func DefaultRoster() []HorseSpec {
	return []HorseSpec{
		{Name: "THUNDER", Color: "#8B4513", Odds: decimal.RequireFromString("3.5")},
		{Name: "LIGHTNING", Color: "#FFD700", Odds: decimal.RequireFromString("2.8")},
		{Name: "STORM", Color: "#4169E1", Odds: decimal.RequireFromString("4.2")},
		{Name: "BLAZE", Color: "#DC143C", Odds: decimal.RequireFromString("3.0")},
		{Name: "SHADOW", Color: "#2F4F4F", Odds: decimal.RequireFromString("5.0")},
		{Name: "COMET", Color: "#FF8C00", Odds: decimal.RequireFromString("3.8")},
	}
}

type rosterFile struct {
	Horses []struct {
		Name  string  `yaml:"name"`
		Color string  `yaml:"color"`
		Odds  float64 `yaml:"odds"`
	} `yaml:"horses"`
}

// LoadRoster parses a YAML roster:
//
//	horses:
//	  - name: THUNDER
//	    color: "#8B4513"
//	    odds: 3.5
func LoadRoster(data []byte) ([]HorseSpec, error) {
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	specs := make([]HorseSpec, 0, len(rf.Horses))
	for _, h := range rf.Horses {
		specs = append(specs, HorseSpec{
			Name:  strings.TrimSpace(h.Name),
			Color: strings.TrimSpace(h.Color),
			Odds:  decimal.NewFromFloat(h.Odds).Round(1),
		})
	}
	if err := ValidateRoster(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// ValidateRoster checks names, colors and odds of every entry.
func ValidateRoster(specs []HorseSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: no horses", ErrInvalidRoster)
	}
	for i, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("%w: horse %d has no name", ErrInvalidRoster, i)
		}
		if !colorPattern.MatchString(s.Color) {
			return fmt.Errorf("%w: horse %q has color %q, want #RRGGBB", ErrInvalidRoster, s.Name, s.Color)
		}
		if s.Odds.IsNegative() {
			return fmt.Errorf("%w: horse %q has negative odds", ErrInvalidRoster, s.Name)
		}
	}
	return nil
}

// RandomOdds draws fresh odds rounded to one decimal place.
func RandomOdds(rng RNG) decimal.Decimal {
	return decimal.NewFromFloat(rng.Float64()*oddsSpread + minOdds).Round(1)
}
