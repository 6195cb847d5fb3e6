package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"derby-go/models"
)

var (
	ErrLedgerClosed     = errors.New("ledger closed")
	ErrInvalidPlayerID  = errors.New("invalid player id")
	ErrInvalidRaceLimit = errors.New("race history limit must be positive")
)

// WalletUpdate describes a change to a wallet. Chips, when set, replaces the
// balance before ChipsIncrement is applied.
type WalletUpdate struct {
	ChipsIncrement  int64
	Chips           *int64
	WinsIncrement   int
	LossesIncrement int
	RacesIncrement  int
}

// IsZero reports whether the update changes nothing.
func (u WalletUpdate) IsZero() bool {
	return u.ChipsIncrement == 0 && u.Chips == nil && u.WinsIncrement == 0 &&
		u.LossesIncrement == 0 && u.RacesIncrement == 0
}

func (u WalletUpdate) apply(w *models.Wallet) {
	if u.Chips != nil {
		w.Chips = *u.Chips
	}
	w.Chips += u.ChipsIncrement
	w.Wins += u.WinsIncrement
	w.Losses += u.LossesIncrement
	w.Races += u.RacesIncrement
	w.UpdatedAt = time.Now().UTC()
}

// StakeUpdate takes a wager out of the wallet when its race starts.
func StakeUpdate(bet int64) WalletUpdate {
	return WalletUpdate{ChipsIncrement: -bet}
}

// SettlementUpdate credits a settled race: payout is the stake plus winnings
// on a win and zero on a loss. Both are increments, so races settled from
// several sessions add up.
func SettlementUpdate(payout int64, won bool) WalletUpdate {
	u := WalletUpdate{ChipsIncrement: payout, RacesIncrement: 1}
	if won {
		u.WinsIncrement = 1
	} else {
		u.LossesIncrement = 1
	}
	return u
}

// Ledger persists wallets and race history.
type Ledger interface {
	// GetWallet returns the player's wallet, opening one with the starting
	// balance if none exists.
	GetWallet(ctx context.Context, playerID string) (*models.Wallet, error)
	UpdateWallet(ctx context.Context, playerID string, update WalletUpdate) (*models.Wallet, error)
	RecordRace(ctx context.Context, rec *models.RaceRecord) error
	// RecentRaces returns up to limit records, newest first.
	RecentRaces(ctx context.Context, playerID string, limit int) ([]*models.RaceRecord, error)
	Close() error
}

// OpenLedger picks the store from the configuration: Postgres when a database
// URL is set, then Badger, then memory.
func OpenLedger(ctx context.Context, cfg *Config) (Ledger, error) {
	switch {
	case cfg.DatabaseURL != "":
		return NewPostgresLedger(ctx, cfg.DatabaseURL, cfg.StartingMoney)
	case cfg.BadgerPath != "":
		return NewBadgerLedger(cfg.BadgerPath, cfg.StartingMoney)
	default:
		BotLogf("LEDGER", "no DATABASE_URL or BADGER_PATH set, wallets are kept in memory")
		return NewMemoryLedger(cfg.StartingMoney), nil
	}
}

func checkPlayerID(playerID string) error {
	if playerID == "" {
		return ErrInvalidPlayerID
	}
	return nil
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRaceLimit, limit)
	}
	return nil
}

// MemoryLedger keeps everything in process memory.
type MemoryLedger struct {
	mu            sync.RWMutex
	startingChips int64
	wallets       map[string]*models.Wallet
	races         map[string][]*models.RaceRecord
	closed        bool
}

func NewMemoryLedger(startingChips int64) *MemoryLedger {
	return &MemoryLedger{
		startingChips: startingChips,
		wallets:       make(map[string]*models.Wallet),
		races:         make(map[string][]*models.RaceRecord),
	}
}

func (m *MemoryLedger) GetWallet(ctx context.Context, playerID string) (*models.Wallet, error) {
	if err := checkPlayerID(playerID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrLedgerClosed
	}
	w := m.walletLocked(playerID)
	out := *w
	return &out, nil
}

func (m *MemoryLedger) UpdateWallet(ctx context.Context, playerID string, update WalletUpdate) (*models.Wallet, error) {
	if err := checkPlayerID(playerID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrLedgerClosed
	}
	w := m.walletLocked(playerID)
	if !update.IsZero() {
		update.apply(w)
	}
	out := *w
	return &out, nil
}

func (m *MemoryLedger) walletLocked(playerID string) *models.Wallet {
	w, ok := m.wallets[playerID]
	if !ok {
		w = models.NewWallet(playerID, m.startingChips)
		m.wallets[playerID] = w
	}
	return w
}

func (m *MemoryLedger) RecordRace(ctx context.Context, rec *models.RaceRecord) error {
	if err := checkPlayerID(rec.PlayerID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrLedgerClosed
	}
	cp := *rec
	m.races[rec.PlayerID] = append(m.races[rec.PlayerID], &cp)
	return nil
}

func (m *MemoryLedger) RecentRaces(ctx context.Context, playerID string, limit int) ([]*models.RaceRecord, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrLedgerClosed
	}
	history := m.races[playerID]
	out := make([]*models.RaceRecord, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *history[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryLedger) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
