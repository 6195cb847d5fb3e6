package utils

import (
	"context"
	"errors"
	"fmt"

	"derby-go/models"

	"github.com/dgraph-io/badger/v3"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	walletEntity = "WALLET"
	raceEntity   = "RACE"

	badgerConflictRetries = 5
)

// BadgerLedger is an embedded ledger: msgpack values under prefixed keys.
type BadgerLedger struct {
	db            *badger.DB
	startingChips int64
}

// NewBadgerLedger opens (or creates) the database directory at path.
func NewBadgerLedger(path string, startingChips int64) (*BadgerLedger, error) {
	return openBadgerLedger(badger.DefaultOptions(path), startingChips)
}

func openBadgerLedger(opts badger.Options, startingChips int64) (*BadgerLedger, error) {
	db, err := badger.Open(opts.WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerLedger{db: db, startingChips: startingChips}, nil
}

func walletKey(playerID string) []byte {
	return []byte(fmt.Sprintf("%s/%s", walletEntity, playerID))
}

func racePrefix(playerID string) []byte {
	return []byte(fmt.Sprintf("%s/%s/", raceEntity, playerID))
}

// raceKey sorts by creation time within a player's prefix.
func raceKey(rec *models.RaceRecord) []byte {
	return []byte(fmt.Sprintf("%s/%s/%020d/%s", raceEntity, rec.PlayerID, rec.CreatedAt.UnixNano(), rec.ID))
}

func buildValue(value interface{}) ([]byte, error) {
	buf, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return buf, nil
}

func (b *BadgerLedger) readWallet(txn *badger.Txn, playerID string) (*models.Wallet, error) {
	item, err := txn.Get(walletKey(playerID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w := &models.Wallet{}
	if err := item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, w)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode wallet %s: %w", playerID, err)
	}
	return w, nil
}

func (b *BadgerLedger) writeWallet(txn *badger.Txn, w *models.Wallet) error {
	buf, err := buildValue(w)
	if err != nil {
		return err
	}
	return txn.Set(walletKey(w.PlayerID), buf)
}

// GetWallet returns the stored wallet, creating one with the starting balance.
func (b *BadgerLedger) GetWallet(ctx context.Context, playerID string) (*models.Wallet, error) {
	return b.UpdateWallet(ctx, playerID, WalletUpdate{})
}

// UpdateWallet applies update in a read-modify-write transaction.
func (b *BadgerLedger) UpdateWallet(ctx context.Context, playerID string, update WalletUpdate) (*models.Wallet, error) {
	if err := checkPlayerID(playerID); err != nil {
		return nil, err
	}
	var out *models.Wallet
	var err error
	for attempt := 0; attempt < badgerConflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		err = b.db.Update(func(txn *badger.Txn) error {
			w, err := b.readWallet(txn, playerID)
			if err != nil {
				return err
			}
			created := w == nil
			if created {
				w = models.NewWallet(playerID, b.startingChips)
			}
			if update.IsZero() && !created {
				out = w
				return nil
			}
			if !update.IsZero() {
				update.apply(w)
			}
			out = w
			return b.writeWallet(txn, w)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet: %w", err)
	}
	return out, nil
}

// RecordRace stores rec under the player's race prefix.
func (b *BadgerLedger) RecordRace(ctx context.Context, rec *models.RaceRecord) error {
	if err := checkPlayerID(rec.PlayerID); err != nil {
		return err
	}
	buf, err := buildValue(rec)
	if err != nil {
		return err
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(raceKey(rec), buf)
	})
	if err != nil {
		return fmt.Errorf("failed to record race: %w", err)
	}
	return nil
}

// RecentRaces walks the player's prefix backwards.
func (b *BadgerLedger) RecentRaces(ctx context.Context, playerID string, limit int) ([]*models.RaceRecord, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	prefix := racePrefix(playerID)
	var out []*models.RaceRecord
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			rec := &models.RaceRecord{}
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	return out, nil
}

// Close flushes and closes the database.
func (b *BadgerLedger) Close() error {
	if err := b.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
		BotErrorf("LEDGER", err, "value log gc on close")
	}
	return b.db.Close()
}
