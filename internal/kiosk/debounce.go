package kiosk

import (
	"hash/fnv"
	"sync"
	"time"
)

const guardShards = 16

// Guard is the tap-debounce ledger. It remembers, per RFID, when the last
// tap was accepted and rejects repeats inside the cooldown window. The
// window is anchored to the last accepted tap: rejected attempts never
// extend it, they only bump a counter used to pick the rejection message.
//
// The ledger is sharded by identifier so taps of unrelated cards do not
// contend on a single lock; it is process-local and never persisted.
type Guard struct {
	cooldown   time.Duration
	evictAfter time.Duration
	now        func() time.Time
	shards     [guardShards]guardShard
}

type guardShard struct {
	mu      sync.Mutex
	entries map[string]*guardEntry
}

type guardEntry struct {
	acceptedAt time.Time
	taps       int
}

// NewGuard creates a guard. evictAfter bounds ledger memory and must be at
// least the cooldown, otherwise eviction could forget an entry that still
// has to block taps.
func NewGuard(cooldown, evictAfter time.Duration) *Guard {
	if evictAfter < cooldown {
		evictAfter = cooldown
	}
	g := &Guard{
		cooldown:   cooldown,
		evictAfter: evictAfter,
		now:        time.Now,
	}
	for i := range g.shards {
		g.shards[i].entries = make(map[string]*guardEntry)
	}
	return g
}

func (g *Guard) shard(rfid string) *guardShard {
	h := fnv.New32a()
	h.Write([]byte(rfid))
	return &g.shards[h.Sum32()%guardShards]
}

// Accept decides a single tap. It returns whether the tap passed the
// cooldown check and, when it did not, how many taps have been seen inside
// the current window (the first rejected repeat reports 2).
//
// The read-modify-write on an entry happens under its shard lock, so two
// near-simultaneous taps of the same card cannot both be accepted.
func (g *Guard) Accept(rfid string) (bool, int) {
	now := g.now()
	s := g.shard(rfid)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[rfid]
	if !ok || now.Sub(e.acceptedAt) >= g.cooldown {
		s.entries[rfid] = &guardEntry{acceptedAt: now, taps: 1}
		return true, 1
	}

	e.taps++
	return false, e.taps
}

// Sweep drops entries whose grace period has elapsed. Safe to call at any
// time: an entry is only dropped once the cooldown has definitely passed,
// so the next Accept decision is unaffected.
func (g *Guard) Sweep() int {
	now := g.now()

	removed := 0
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		for rfid, e := range s.entries {
			if now.Sub(e.acceptedAt) >= g.evictAfter {
				delete(s.entries, rfid)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Run sweeps periodically until stop is closed. Meant to be launched as a
// goroutine from main.
func (g *Guard) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(g.evictAfter)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.Sweep()
		case <-stop:
			return
		}
	}
}

func (g *Guard) size() int {
	total := 0
	for i := range g.shards {
		s := &g.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}
