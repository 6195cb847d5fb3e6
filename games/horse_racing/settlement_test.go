package horse_racing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWinnings(t *testing.T) {
	tests := []struct {
		bet  int64
		odds string
		want int64
	}{
		{50, "3.5", 175},
		{10, "2.8", 28},
		{33, "4.2", 138},
		{15, "3.3", 49},
		{1000, "5.0", 5000},
		{7, "0", 0},
	}
	for _, tt := range tests {
		got := Winnings(tt.bet, decimal.RequireFromString(tt.odds))
		if got != tt.want {
			t.Errorf("Winnings(%d, %s) = %d, want %d", tt.bet, tt.odds, got, tt.want)
		}
	}
}

func TestSettlementNet(t *testing.T) {
	win := Settlement{Outcome: OutcomeWin, Bet: 50, Winnings: 175}
	if !win.Won() || win.Net() != 175 || win.Payout() != 225 {
		t.Errorf("Unexpected win settlement: won=%v net=%d payout=%d", win.Won(), win.Net(), win.Payout())
	}
	loss := Settlement{Outcome: OutcomeLoss, Bet: 50}
	if loss.Won() || loss.Net() != -50 || loss.Payout() != 0 {
		t.Errorf("Unexpected loss settlement: won=%v net=%d payout=%d", loss.Won(), loss.Net(), loss.Payout())
	}
}
