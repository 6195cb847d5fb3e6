package models

import (
	"time"
)

// StartingChips is the bankroll a new wallet opens with.
const StartingChips int64 = 1000

// Wallet is a bettor's persistent balance and record across races
type Wallet struct {
	PlayerID  string    `json:"player_id" msgpack:"player_id"`
	Chips     int64     `json:"chips" msgpack:"chips"`
	Wins      int       `json:"wins" msgpack:"wins"`
	Losses    int       `json:"losses" msgpack:"losses"`
	Races     int       `json:"races" msgpack:"races"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

// NewWallet opens a wallet with the given bankroll
func NewWallet(playerID string, chips int64) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		PlayerID:  playerID,
		Chips:     chips,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WinRate calculates the wallet's win rate as a percentage
func (w *Wallet) WinRate() float64 {
	total := w.Wins + w.Losses
	if total == 0 {
		return 0.0
	}

	return (float64(w.Wins) / float64(total)) * 100
}

// CanAffordBet checks if the wallet covers a specific bet amount
func (w *Wallet) CanAffordBet(amount int64) bool {
	return amount > 0 && w.Chips >= amount
}

// NetProfit is the balance relative to the starting bankroll
func (w *Wallet) NetProfit() int64 {
	return w.Chips - StartingChips
}
