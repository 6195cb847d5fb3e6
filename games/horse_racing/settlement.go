package horse_racing

import (
	"github.com/shopspring/decimal"
)

// Outcome is the result of a settled wager.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Settlement is what a finished race reports to the bettor.
type Settlement struct {
	RaceNumber    int         `json:"race_number"`
	Outcome       Outcome     `json:"outcome"`
	Winner        HorseView   `json:"winner"`
	Selected      HorseView   `json:"selected"`
	Bet           int64       `json:"bet"`
	Winnings      int64       `json:"winnings"`
	Standings     []HorseView `json:"standings"`
	Money         int64       `json:"money"`
	Ticks         int         `json:"ticks"`
	BankrollReset bool        `json:"bankroll_reset"`
}

// Won reports whether the bettor's horse came in first.
func (s Settlement) Won() bool {
	return s.Outcome == OutcomeWin
}

// Net is the change in balance across the race, stake included.
func (s Settlement) Net() int64 {
	if s.Won() {
		return s.Winnings
	}
	return -s.Bet
}

// Payout is what the bettor collects: the stake plus winnings on a win,
// nothing on a loss.
func (s Settlement) Payout() int64 {
	if s.Won() {
		return s.Bet + s.Winnings
	}
	return 0
}

// Winnings returns floor(bet * odds). The stake itself is not included.
func Winnings(bet int64, odds decimal.Decimal) int64 {
	return decimal.NewFromInt(bet).Mul(odds).Floor().IntPart()
}
