package main

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// errInvalidSample marks a GPS fix with non-finite or out-of-range
// coordinates. Such updates are dropped without touching the store; bad fixes
// from flaky receivers are expected traffic, not faults.
var errInvalidSample = errors.New("invalid location sample")

// broadcastNotifier is the sink the store tells about state changes. The hub
// implements it; tests substitute a recorder.
type broadcastNotifier interface {
	publishSnapshot()
	publishRemoval(id string)
}

// entityStore owns every live tracked entity. All access goes through the
// mutex; callers only ever see copies.
type entityStore struct {
	mu           sync.Mutex
	entities     map[string]*trackedEntity
	historyLimit int
	notifier     broadcastNotifier
	metrics      *trackerMetrics
}

func newEntityStore(historyLimit int, notifier broadcastNotifier, metrics *trackerMetrics) *entityStore {
	return &entityStore{
		entities:     make(map[string]*trackedEntity),
		historyLimit: historyLimit,
		notifier:     notifier,
		metrics:      metrics,
	}
}

func validateSample(s LocationSample) error {
	if math.IsNaN(s.Lat) || math.IsInf(s.Lat, 0) || math.IsNaN(s.Lng) || math.IsInf(s.Lng, 0) {
		return fmt.Errorf("%w: non-finite coordinate (%v, %v)", errInvalidSample, s.Lat, s.Lng)
	}
	if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
		return fmt.Errorf("%w: coordinate out of range (%v, %v)", errInvalidSample, s.Lat, s.Lng)
	}
	return nil
}

// upsert applies one location update. A new id gets a fresh entity with empty
// history; an existing one pushes its previous position onto the history only
// when the coordinate actually moved, so stationary chatter does not churn
// the path. Every accepted update refreshes Current and triggers a broadcast.
func (s *entityStore) upsert(id, displayName string, sample LocationSample) error {
	if err := validateSample(sample); err != nil {
		s.metrics.updateRejected()
		return err
	}

	s.mu.Lock()
	ent, ok := s.entities[id]
	if !ok {
		s.entities[id] = &trackedEntity{
			ID:          id,
			DisplayName: displayName,
			Current:     sample,
		}
	} else {
		if ent.Current.Coordinate != sample.Coordinate {
			ent.History = append(ent.History, ent.Current)
			if len(ent.History) > s.historyLimit {
				ent.History = ent.History[1:]
			}
		}
		ent.Current = sample
		ent.DisplayName = displayName
	}
	count := len(s.entities)
	s.mu.Unlock()

	s.metrics.updateApplied()
	s.metrics.setTrackedEntities(count)
	s.notifier.publishSnapshot()
	return nil
}

// remove deletes an entity on an explicit stop signal. Returns whether it
// existed; removing an unknown id is a silent no-op with no broadcast.
func (s *entityStore) remove(id string) bool {
	s.mu.Lock()
	_, ok := s.entities[id]
	if ok {
		delete(s.entities, id)
	}
	count := len(s.entities)
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.metrics.setTrackedEntities(count)
	s.notifier.publishRemoval(id)
	s.notifier.publishSnapshot()
	return true
}

// sweepStale removes every entity whose latest sample is older than timeout
// and returns the removed ids. Notification is the caller's job; the sweeper
// sends per-id removal notices before the follow-up snapshot.
func (s *entityStore) sweepStale(now time.Time, timeout time.Duration) []string {
	s.mu.Lock()
	var removed []string
	for id, ent := range s.entities {
		if now.Sub(ent.Current.Timestamp) > timeout {
			removed = append(removed, id)
			delete(s.entities, id)
		}
	}
	count := len(s.entities)
	s.mu.Unlock()

	if len(removed) > 0 {
		s.metrics.setTrackedEntities(count)
	}
	return removed
}

// snapshot returns a point-in-time copy of every entity, history included,
// safe to hand to concurrent readers.
func (s *entityStore) snapshot() map[string]trackedEntity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]trackedEntity, len(s.entities))
	for id, ent := range s.entities {
		cp := *ent
		cp.History = make([]LocationSample, len(ent.History))
		copy(cp.History, ent.History)
		out[id] = cp
	}
	return out
}
