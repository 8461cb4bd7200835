package kiosk

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGuard(cooldown, evictAfter time.Duration) (*Guard, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	g := NewGuard(cooldown, evictAfter)
	g.now = clock.Now
	return g, clock
}

func TestGuardAcceptsFirstTap(t *testing.T) {
	g, _ := newTestGuard(5*time.Second, 7*time.Second)

	ok, taps := g.Accept("card-1")
	assert.True(t, ok)
	assert.Equal(t, 1, taps)
}

func TestGuardRejectsWithinCooldown(t *testing.T) {
	g, clock := newTestGuard(5*time.Second, 7*time.Second)

	ok, _ := g.Accept("card-1")
	assert.True(t, ok)

	clock.Advance(1 * time.Second)
	ok, taps := g.Accept("card-1")
	assert.False(t, ok)
	assert.Equal(t, 2, taps)

	clock.Advance(1 * time.Second)
	ok, taps = g.Accept("card-1")
	assert.False(t, ok)
	assert.Equal(t, 3, taps)
}

func TestGuardAcceptsAfterCooldown(t *testing.T) {
	g, clock := newTestGuard(5*time.Second, 7*time.Second)

	g.Accept("card-1")
	clock.Advance(5 * time.Second)

	ok, taps := g.Accept("card-1")
	assert.True(t, ok)
	assert.Equal(t, 1, taps)
}

// The window is anchored to the last accepted tap. A rejected attempt at
// t+4s must not push acceptance past t+5s.
func TestGuardRejectionDoesNotExtendWindow(t *testing.T) {
	g, clock := newTestGuard(5*time.Second, 7*time.Second)

	g.Accept("card-1")

	clock.Advance(4 * time.Second)
	ok, _ := g.Accept("card-1")
	assert.False(t, ok)

	clock.Advance(1 * time.Second)
	ok, _ = g.Accept("card-1")
	assert.True(t, ok)
}

func TestGuardTracksCardsIndependently(t *testing.T) {
	g, _ := newTestGuard(5*time.Second, 7*time.Second)

	ok, _ := g.Accept("card-1")
	assert.True(t, ok)
	ok, _ = g.Accept("card-2")
	assert.True(t, ok)
	ok, _ = g.Accept("card-1")
	assert.False(t, ok)
}

func TestGuardSweepKeepsLiveEntries(t *testing.T) {
	g, clock := newTestGuard(5*time.Second, 7*time.Second)

	g.Accept("card-1")
	clock.Advance(3 * time.Second)

	assert.Equal(t, 0, g.Sweep())
	assert.Equal(t, 1, g.size())

	ok, _ := g.Accept("card-1")
	assert.False(t, ok, "sweep must not reset an active cooldown")
}

func TestGuardSweepEvictsExpiredEntries(t *testing.T) {
	g, clock := newTestGuard(5*time.Second, 7*time.Second)

	g.Accept("card-1")
	clock.Advance(7 * time.Second)

	assert.Equal(t, 1, g.Sweep())
	assert.Equal(t, 0, g.size())

	ok, _ := g.Accept("card-1")
	assert.True(t, ok, "eviction happens only after the cooldown has elapsed")
}

func TestGuardEvictionNeverShorterThanCooldown(t *testing.T) {
	g, clock := newTestGuard(5*time.Second, 1*time.Second)

	g.Accept("card-1")
	clock.Advance(2 * time.Second)

	g.Sweep()
	ok, _ := g.Accept("card-1")
	assert.False(t, ok)
}

func TestGuardConcurrentTapsDistinctCards(t *testing.T) {
	g, _ := newTestGuard(5*time.Second, 7*time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if ok, _ := g.Accept(fmt.Sprintf("card-%d", i)); ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, accepted, "unrelated cards never debounce each other")
	assert.Equal(t, 100, g.size())
}

func TestGuardConcurrentTapsSameCard(t *testing.T) {
	g, _ := newTestGuard(5*time.Second, 7*time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Accept("card-1"); ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted, "near-simultaneous taps of one card must yield a single acceptance")
}
