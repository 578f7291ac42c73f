package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hub := newBroadcastHub(nil, time.Now, nil)
	store := newEntityStore(20, hub, nil)
	hub.entities = store
	handler := newWSHandler(store, hub, newAuthenticator(defaultUsers()))

	mux := http.NewServeMux()
	registerRoutes(mux, handler, nil)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWebSocketTrackingSession(t *testing.T) {
	srv := startTestServer(t)
	conn := dialWS(t, srv)

	// Every new connection is seeded with the current (empty) snapshot.
	var initial snapshotMessage
	readJSON(t, conn, &initial)
	if initial.Type != "ambulancesUpdate" || len(initial.Ambulances) != 0 {
		t.Fatalf("initial snapshot = %+v", initial)
	}

	// Failed then successful login.
	sendJSON(t, conn, clientMessage{Type: "login", Username: "admin", Password: "wrong"})
	var denied loginResponse
	readJSON(t, conn, &denied)
	if denied.Type != "loginResponse" || denied.Success {
		t.Fatalf("denied = %+v", denied)
	}

	sendJSON(t, conn, clientMessage{Type: "login", Username: "admin", Password: "admin123"})
	var granted loginResponse
	readJSON(t, conn, &granted)
	if !granted.Success || granted.User == nil || granted.User.Username != "admin" {
		t.Fatalf("granted = %+v", granted)
	}

	// A location update comes back as a broadcast including this session.
	sendJSON(t, conn, clientMessage{
		Type:     "updateLocation",
		UserID:   "1",
		Username: "admin",
		Location: &LocationSample{
			Coordinate: Coordinate{Lat: -7.6298, Lng: 111.53},
			Timestamp:  time.Now(),
		},
	})
	var update snapshotMessage
	readJSON(t, conn, &update)
	amb, ok := update.Ambulances["1"]
	if !ok {
		t.Fatalf("update = %+v", update)
	}
	if amb.Username != "admin" || amb.Status != statusStationary {
		t.Fatalf("ambulance = %+v", amb)
	}

	// An invalid fix is dropped without any broadcast; the next valid event
	// is the stop, which yields a removal notice then an empty snapshot.
	sendJSON(t, conn, clientMessage{
		Type:     "updateLocation",
		UserID:   "1",
		Username: "admin",
		Location: &LocationSample{
			Coordinate: Coordinate{Lat: 1000, Lng: 111.53},
			Timestamp:  time.Now(),
		},
	})
	sendJSON(t, conn, clientMessage{Type: "stopTracking", UserID: "1"})

	var removal removalMessage
	readJSON(t, conn, &removal)
	if removal.Type != "ambulanceRemoved" || removal.ID != "1" {
		t.Fatalf("removal = %+v", removal)
	}
	var after snapshotMessage
	readJSON(t, conn, &after)
	if len(after.Ambulances) != 0 {
		t.Fatalf("after stop = %+v", after)
	}
}

func TestWebSocketSecondViewerSeesUpdates(t *testing.T) {
	srv := startTestServer(t)

	tracker := dialWS(t, srv)
	var skip snapshotMessage
	readJSON(t, tracker, &skip)

	viewer := dialWS(t, srv)
	readJSON(t, viewer, &skip)

	sendJSON(t, tracker, clientMessage{
		Type:     "updateLocation",
		UserID:   "u9",
		Username: "Unit 9",
		Location: &LocationSample{
			Coordinate: Coordinate{Lat: -7.6298, Lng: 111.53},
			Timestamp:  time.Now(),
		},
	})

	var seen snapshotMessage
	readJSON(t, viewer, &seen)
	if _, ok := seen.Ambulances["u9"]; !ok {
		t.Fatalf("viewer did not see the update: %+v", seen)
	}
}

func TestWebSocketGetAmbulancesRepliesToRequester(t *testing.T) {
	srv := startTestServer(t)
	conn := dialWS(t, srv)

	var skip snapshotMessage
	readJSON(t, conn, &skip)

	sendJSON(t, conn, clientMessage{Type: "getAmbulances"})
	var snap snapshotMessage
	readJSON(t, conn, &snap)
	if snap.Type != "ambulancesUpdate" {
		t.Fatalf("reply = %+v", snap)
	}
}
