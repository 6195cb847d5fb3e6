package horse_racing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Speed bounds of a single tick. A sample is base + spread*a + kick*b with a, b in [0,1).
const (
	baseSpeed   = 1.0
	speedSpread = 3.0
	speedKick   = 0.5

	// MaxSpeed is an exclusive upper bound on any speed sample.
	MaxSpeed = 5.0
)

// Horse is one runner of the roster. ID doubles as the lane number.
type Horse struct {
	ID         int
	Name       string
	Color      string
	Odds       decimal.Decimal // payout multiplier (x:1)
	Position   float64
	Speed      float64
	Finished   bool
	FinishTime time.Time
}

// HorseView is the read-only shape handed to presenters.
type HorseView struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Color    string          `json:"color"`
	Odds     decimal.Decimal `json:"odds"`
	Position float64         `json:"position"`
	Finished bool            `json:"finished"`
}

// NewHorse creates a horse at the starting gate.
func NewHorse(id int, name, color string, odds decimal.Decimal) *Horse {
	return &Horse{ID: id, Name: name, Color: color, Odds: odds}
}

// Update advances the horse by one tick. Finished horses do not move.
func (h *Horse) Update(rng RNG) {
	if h.Finished {
		return
	}
	h.Speed = rng.Float64()*speedSpread + baseSpeed + rng.Float64()*speedKick
	h.Position += h.Speed
}

// Reset puts the horse back at the gate.
func (h *Horse) Reset() {
	h.Position = 0
	h.Speed = 0
	h.Finished = false
	h.FinishTime = time.Time{}
}

// View snapshots the horse for rendering.
func (h *Horse) View() HorseView {
	return HorseView{
		ID:       h.ID,
		Name:     h.Name,
		Color:    h.Color,
		Odds:     h.Odds,
		Position: h.Position,
		Finished: h.Finished,
	}
}
