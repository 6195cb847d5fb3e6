package utils

import (
	"context"
	"sync"
)

// AnimationSequence is one running background loop
type AnimationSequence struct {
	ID     string
	Cancel context.CancelFunc
	done   chan struct{}
}

// AnimationManager runs at most one background loop per id, such as a race
// ticking and redrawing its message
type AnimationManager struct {
	sequences map[string]*AnimationSequence
	mutex     sync.RWMutex
}

// Global animation manager
var Animations = NewAnimationManager()

func NewAnimationManager() *AnimationManager {
	return &AnimationManager{sequences: make(map[string]*AnimationSequence)}
}

// StartAnimation runs fn in the background, cancelling any loop already
// running under the same id. fn should return once ctx is done.
func (am *AnimationManager) StartAnimation(id string, fn func(ctx context.Context)) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	if existing, exists := am.sequences[id]; exists {
		existing.Cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sequence := &AnimationSequence{ID: id, Cancel: cancel, done: make(chan struct{})}
	am.sequences[id] = sequence

	go func() {
		defer func() {
			cancel()
			am.mutex.Lock()
			if am.sequences[id] == sequence {
				delete(am.sequences, id)
			}
			am.mutex.Unlock()
			close(sequence.done)
		}()
		fn(ctx)
	}()
}

// CancelAnimation cancels a running loop and waits for it to return
func (am *AnimationManager) CancelAnimation(id string) {
	am.mutex.RLock()
	sequence, exists := am.sequences[id]
	am.mutex.RUnlock()

	if exists {
		sequence.Cancel()
		<-sequence.done
	}
}

// Wait blocks until the loop under id has returned
func (am *AnimationManager) Wait(id string) {
	am.mutex.RLock()
	sequence, exists := am.sequences[id]
	am.mutex.RUnlock()

	if exists {
		<-sequence.done
	}
}

// IsAnimationRunning checks if a loop is currently running
func (am *AnimationManager) IsAnimationRunning(id string) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	_, exists := am.sequences[id]
	return exists
}

// CancelAll stops every running loop
func (am *AnimationManager) CancelAll() {
	am.mutex.RLock()
	ids := make([]string, 0, len(am.sequences))
	for id := range am.sequences {
		ids = append(ids, id)
	}
	am.mutex.RUnlock()

	for _, id := range ids {
		am.CancelAnimation(id)
	}
}
