package utils

import (
	"context"
	"sync"
	"time"

	"derby-go/models"
)

// CacheEntry is a cached wallet with its expiry
type CacheEntry struct {
	Wallet    *models.Wallet
	ExpiresAt time.Time
}

// WalletCache keeps recently used wallets in front of a Ledger
type WalletCache struct {
	ledger        Ledger
	data          map[string]*CacheEntry
	mutex         sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	done          chan struct{}
	closeOnce     sync.Once
	now           func() time.Time
}

// NewWalletCache starts a cache with a cleanup routine every cleanupEvery.
func NewWalletCache(ledger Ledger, ttl, cleanupEvery time.Duration) *WalletCache {
	wc := &WalletCache{
		ledger: ledger,
		data:   make(map[string]*CacheEntry),
		ttl:    ttl,
		done:   make(chan struct{}),
		now:    time.Now,
	}
	if cleanupEvery > 0 {
		wc.cleanupTicker = time.NewTicker(cleanupEvery)
		go wc.cleanupRoutine()
	}
	return wc
}

// Close stops the cleanup routine
func (wc *WalletCache) Close() {
	wc.closeOnce.Do(func() {
		if wc.cleanupTicker != nil {
			wc.cleanupTicker.Stop()
		}
		close(wc.done)
	})
}

// Get retrieves a wallet copy from cache
func (wc *WalletCache) Get(playerID string) (*models.Wallet, bool) {
	wc.mutex.RLock()
	entry, exists := wc.data[playerID]
	wc.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if wc.now().After(entry.ExpiresAt) {
		wc.Delete(playerID)
		return nil, false
	}

	walletCopy := *entry.Wallet
	return &walletCopy, true
}

// Set stores a copy of the wallet
func (wc *WalletCache) Set(w *models.Wallet) {
	walletCopy := *w
	entry := &CacheEntry{
		Wallet:    &walletCopy,
		ExpiresAt: wc.now().Add(wc.ttl),
	}

	wc.mutex.Lock()
	wc.data[w.PlayerID] = entry
	wc.mutex.Unlock()
}

// Delete removes a wallet from cache
func (wc *WalletCache) Delete(playerID string) {
	wc.mutex.Lock()
	delete(wc.data, playerID)
	wc.mutex.Unlock()
}

// Size returns the number of entries in cache
func (wc *WalletCache) Size() int {
	wc.mutex.RLock()
	defer wc.mutex.RUnlock()
	return len(wc.data)
}

func (wc *WalletCache) cleanupRoutine() {
	for {
		select {
		case <-wc.cleanupTicker.C:
			wc.cleanup()
		case <-wc.done:
			return
		}
	}
}

func (wc *WalletCache) cleanup() int {
	now := wc.now()
	wc.mutex.Lock()
	removed := 0
	for id, entry := range wc.data {
		if now.After(entry.ExpiresAt) {
			delete(wc.data, id)
			removed++
		}
	}
	size := len(wc.data)
	wc.mutex.Unlock()

	if removed > 0 {
		BotLogf("CACHE", "Cleaned up %d expired wallet entries. Cache size: %d", removed, size)
	}
	return removed
}

// GetCachedWallet reads through the cache to the ledger
func (wc *WalletCache) GetCachedWallet(ctx context.Context, playerID string) (*models.Wallet, error) {
	if w, found := wc.Get(playerID); found {
		return w, nil
	}
	w, err := wc.ledger.GetWallet(ctx, playerID)
	if err != nil {
		return nil, err
	}
	wc.Set(w)
	return w, nil
}

// UpdateCachedWallet writes to the ledger and refreshes the cache
func (wc *WalletCache) UpdateCachedWallet(ctx context.Context, playerID string, update WalletUpdate) (*models.Wallet, error) {
	w, err := wc.ledger.UpdateWallet(ctx, playerID, update)
	if err != nil {
		wc.Delete(playerID)
		return nil, err
	}
	wc.Set(w)
	return w, nil
}
