package models

import (
	"time"

	"derby-go/games/horse_racing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RaceRecord is one settled wager as stored in the race history
type RaceRecord struct {
	ID         uuid.UUID            `json:"id" msgpack:"id"`
	PlayerID   string               `json:"player_id" msgpack:"player_id"`
	RaceNumber int                  `json:"race_number" msgpack:"race_number"`
	HorseID    int                  `json:"horse_id" msgpack:"horse_id"`
	HorseName  string               `json:"horse_name" msgpack:"horse_name"`
	Odds       decimal.Decimal      `json:"odds" msgpack:"odds"`
	Bet        int64                `json:"bet" msgpack:"bet"`
	Outcome    horse_racing.Outcome `json:"outcome" msgpack:"outcome"`
	Winnings   int64                `json:"winnings" msgpack:"winnings"`
	WinnerID   int                  `json:"winner_id" msgpack:"winner_id"`
	WinnerName string               `json:"winner_name" msgpack:"winner_name"`
	Standings  []int                `json:"standings" msgpack:"standings"`
	Ticks      int                  `json:"ticks" msgpack:"ticks"`
	Balance    int64                `json:"balance" msgpack:"balance"`
	CreatedAt  time.Time            `json:"created_at" msgpack:"created_at"`
}

// NewRaceRecord captures a settlement for the player's history
func NewRaceRecord(playerID string, s horse_racing.Settlement) *RaceRecord {
	standings := make([]int, 0, len(s.Standings))
	for _, h := range s.Standings {
		standings = append(standings, h.ID)
	}
	return &RaceRecord{
		ID:         uuid.New(),
		PlayerID:   playerID,
		RaceNumber: s.RaceNumber,
		HorseID:    s.Selected.ID,
		HorseName:  s.Selected.Name,
		Odds:       s.Selected.Odds,
		Bet:        s.Bet,
		Outcome:    s.Outcome,
		Winnings:   s.Winnings,
		WinnerID:   s.Winner.ID,
		WinnerName: s.Winner.Name,
		Standings:  standings,
		Ticks:      s.Ticks,
		Balance:    s.Money,
		CreatedAt:  time.Now().UTC(),
	}
}

// Won reports whether the backed horse won
func (r *RaceRecord) Won() bool {
	return r.Outcome == horse_racing.OutcomeWin
}

// Net is the change in balance the wager caused
func (r *RaceRecord) Net() int64 {
	if r.Won() {
		return r.Winnings
	}
	return -r.Bet
}
