package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

const sessionWriteWait = 10 * time.Second

// sessionConn is the slice of *websocket.Conn the hub needs; tests substitute
// recording fakes.
type sessionConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// viewerSession is one connected viewer. The per-session mutex serializes
// writes from the broadcast path and the direct-reply path onto one
// connection.
type viewerSession struct {
	id   string
	conn sessionConn
	mu   sync.Mutex
}

func (s *viewerSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	return s.conn.WriteMessage(messageType, data)
}

// snapshotSource decouples the hub from the concrete store for tests.
type snapshotSource interface {
	snapshot() map[string]trackedEntity
}

// broadcastHub fans state out to every registered viewer. Its session set has
// its own lock, independent of the store's, so slow writes never hold up
// location ingestion. Delivery is best effort per session: a session whose
// write fails is dropped and closed, and the broadcast continues to the rest.
type broadcastHub struct {
	mu       sync.Mutex
	sessions map[*viewerSession]struct{}
	entities snapshotSource
	now      func() time.Time
	metrics  *trackerMetrics
}

func newBroadcastHub(entities snapshotSource, now func() time.Time, metrics *trackerMetrics) *broadcastHub {
	if now == nil {
		now = time.Now
	}
	return &broadcastHub{
		sessions: make(map[*viewerSession]struct{}),
		entities: entities,
		now:      now,
		metrics:  metrics,
	}
}

func (h *broadcastHub) register(s *viewerSession) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()
	h.metrics.setConnectedViewers(count)
}

func (h *broadcastHub) unregister(s *viewerSession) {
	h.mu.Lock()
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()
	h.metrics.setConnectedViewers(count)
}

// buildSnapshotMessage classifies every entity in the current snapshot and
// assembles the outward payload. The store lock is released before any
// session write happens.
func (h *broadcastHub) buildSnapshotMessage() snapshotMessage {
	now := h.now()
	entities := h.entities.snapshot()
	ambulances := make(map[string]wireAmbulance, len(entities))
	for id, ent := range entities {
		path := make([]Coordinate, 0, len(ent.History)+1)
		for _, s := range ent.History {
			path = append(path, s.Coordinate)
		}
		path = append(path, ent.Current.Coordinate)
		ambulances[id] = wireAmbulance{
			ID:         id,
			Username:   ent.DisplayName,
			Location:   ent.Current,
			Status:     classify(ent, now),
			RecentPath: path,
		}
	}
	return snapshotMessage{Type: "ambulancesUpdate", Ambulances: ambulances, ServerTime: now.UnixMilli()}
}

func (h *broadcastHub) publishSnapshot() {
	data, err := json.Marshal(h.buildSnapshotMessage())
	if err != nil {
		log.Printf("failed to marshal snapshot: %v", err)
		return
	}
	h.broadcast(data)
	h.metrics.broadcastSent()
}

func (h *broadcastHub) publishRemoval(id string) {
	data, err := json.Marshal(removalMessage{Type: "ambulanceRemoved", ID: id})
	if err != nil {
		log.Printf("failed to marshal removal notice: %v", err)
		return
	}
	h.broadcast(data)
}

// sendSnapshotTo pushes the current snapshot to a single session, used for an
// explicit refresh request and for the initial write on connect.
func (h *broadcastHub) sendSnapshotTo(s *viewerSession) {
	data, err := json.Marshal(h.buildSnapshotMessage())
	if err != nil {
		log.Printf("failed to marshal snapshot: %v", err)
		return
	}
	if err := s.write(textMessage, data); err != nil {
		h.drop(s, err)
	}
}

func (h *broadcastHub) broadcast(data []byte) {
	h.mu.Lock()
	targets := make([]*viewerSession, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		if err := s.write(textMessage, data); err != nil {
			h.drop(s, err)
		}
	}
}

func (h *broadcastHub) drop(s *viewerSession, err error) {
	log.Printf("dropping viewer %s: %v", s.id, err)
	h.unregister(s)
	_ = s.conn.Close()
}
