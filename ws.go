package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const textMessage = websocket.TextMessage

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsHandler owns the websocket endpoint. Every connection, tracker or viewer
// alike, is registered as a viewer session so it receives broadcasts; the
// message loop additionally applies tracker events against the store.
type wsHandler struct {
	store *entityStore
	hub   *broadcastHub
	auth  *authenticator
}

func newWSHandler(store *entityStore, hub *broadcastHub, auth *authenticator) *wsHandler {
	return &wsHandler{store: store, hub: hub, auth: auth}
}

func (h *wsHandler) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	session := &viewerSession{id: uuid.NewString(), conn: conn}
	h.hub.register(session)
	log.Printf("viewer %s connected from %s", session.id, r.RemoteAddr)

	// Seed the new viewer with the current state so the map fills in
	// immediately instead of waiting for the next change.
	h.hub.sendSnapshotTo(session)

	h.readLoop(session, conn)
}

func (h *wsHandler) readLoop(session *viewerSession, conn *websocket.Conn) {
	defer func() {
		h.hub.unregister(session)
		_ = conn.Close()
		log.Printf("viewer %s disconnected", session.id)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("discarding malformed message from %s: %v", session.id, err)
			continue
		}

		switch msg.Type {
		case "login":
			h.handleLogin(session, msg)
		case "updateLocation":
			h.handleUpdate(session, msg)
		case "stopTracking":
			if !h.store.remove(msg.UserID) {
				log.Printf("stopTracking for unknown id %q", msg.UserID)
			}
		case "getAmbulances":
			h.hub.sendSnapshotTo(session)
		default:
			log.Printf("unknown message type %q from %s", msg.Type, session.id)
		}
	}
}

func (h *wsHandler) handleLogin(session *viewerSession, msg clientMessage) {
	resp := h.auth.authenticate(msg.Username, msg.Password)
	resp.Type = "loginResponse"
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("failed to marshal login response: %v", err)
		return
	}
	if err := session.write(textMessage, data); err != nil {
		h.hub.drop(session, err)
	}
}

func (h *wsHandler) handleUpdate(session *viewerSession, msg clientMessage) {
	if msg.Location == nil || msg.UserID == "" {
		log.Printf("discarding incomplete location update from %s", session.id)
		return
	}
	if err := h.store.upsert(msg.UserID, msg.Username, *msg.Location); err != nil {
		if errors.Is(err, errInvalidSample) {
			log.Printf("rejected update for %s: %v", msg.UserID, err)
			return
		}
		log.Printf("update for %s failed: %v", msg.UserID, err)
	}
}
