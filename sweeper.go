package main

import (
	"context"
	"log"
	"time"
)

// staleSweeper periodically evicts entities that stopped reporting without an
// explicit stop signal, e.g. a crashed client app. It is the only
// timer-driven component and keeps running regardless of how individual
// viewer pushes fare.
type staleSweeper struct {
	store    *entityStore
	hub      *broadcastHub
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func newStaleSweeper(store *entityStore, hub *broadcastHub, interval, timeout time.Duration) *staleSweeper {
	return &staleSweeper{
		store:    store,
		hub:      hub,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (s *staleSweeper) run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce()
		}
	}
}

// sweepOnce removes everything stale, tells viewers to drop each marker, then
// pushes one fresh snapshot if anything changed.
func (s *staleSweeper) sweepOnce() {
	removed := s.store.sweepStale(s.now(), s.timeout)
	if len(removed) == 0 {
		return
	}
	log.Printf("swept %d stale entities: %v", len(removed), removed)
	for _, id := range removed {
		s.hub.publishRemoval(id)
	}
	s.hub.publishSnapshot()
}
