package horse_racing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestHorseUpdateSpeedBounds(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"minimum", 0, 0, 1.0},
		{"midpoint", 0.5, 0.5, 2.75},
		{"near maximum", 0.999999, 0.999999, 0.999999*3 + 1 + 0.999999*0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHorse(0, "THUNDER", "#8B4513", decimal.NewFromFloat(3.5))
			h.Update(&scriptedRNG{vals: []float64{tt.a, tt.b}})
			if h.Speed != tt.want {
				t.Errorf("Expected speed %v, got %v", tt.want, h.Speed)
			}
			if h.Position != tt.want {
				t.Errorf("Expected position %v, got %v", tt.want, h.Position)
			}
			if h.Speed < 1.0 || h.Speed >= MaxSpeed {
				t.Errorf("Speed %v outside [1, %v)", h.Speed, MaxSpeed)
			}
		})
	}
}

func TestHorseUpdateAccumulates(t *testing.T) {
	h := NewHorse(1, "LIGHTNING", "#FFD700", decimal.NewFromFloat(2.8))
	rng := &scriptedRNG{vals: []float64{0, 0}}
	for i := 0; i < 10; i++ {
		h.Update(rng)
	}
	if h.Position != 10 {
		t.Errorf("Expected position 10 after ten minimum ticks, got %v", h.Position)
	}
}

func TestHorseUpdateFinishedIsNoop(t *testing.T) {
	h := NewHorse(2, "STORM", "#4169E1", decimal.NewFromFloat(4.2))
	h.Position = 812.5
	h.Speed = 3.25
	h.Finished = true

	rng := &scriptedRNG{vals: []float64{0.7}}
	h.Update(rng)

	if h.Position != 812.5 || h.Speed != 3.25 {
		t.Errorf("Finished horse moved: position %v, speed %v", h.Position, h.Speed)
	}
	if rng.i != 0 {
		t.Errorf("Finished horse drew %d random values", rng.i)
	}
}

func TestHorseResetIdempotent(t *testing.T) {
	h := NewHorse(3, "BLAZE", "#DC143C", decimal.NewFromFloat(3.0))
	h.Position = 640
	h.Speed = 4.1
	h.Finished = true
	h.FinishTime = time.Now()

	for i := 0; i < 2; i++ {
		h.Reset()
		if h.Position != 0 || h.Speed != 0 || h.Finished || !h.FinishTime.IsZero() {
			t.Fatalf("Reset #%d left state behind: %+v", i+1, h)
		}
	}
	if h.ID != 3 || h.Name != "BLAZE" || h.Color != "#DC143C" || !h.Odds.Equal(decimal.NewFromFloat(3.0)) {
		t.Errorf("Reset changed identity: %+v", h)
	}
}

func TestNewRNGDeterministic(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 100; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}
