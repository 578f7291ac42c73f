package main

import "time"

// Coordinate is a WGS 84 position as reported by a tracking client.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationSample is one GPS fix. Accuracy, speed, and heading are optional;
// browser geolocation omits them on devices without the sensors.
type LocationSample struct {
	Coordinate
	Accuracy   *float64  `json:"accuracy,omitempty"`
	SpeedMps   *float64  `json:"speed,omitempty"`
	HeadingDeg *float64  `json:"heading,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// trackedEntity is one live ambulance session. History holds up to the
// configured limit of prior samples, oldest first, and only gains an entry
// when the position actually changed.
type trackedEntity struct {
	ID          string
	DisplayName string
	Current     LocationSample
	History     []LocationSample
}

type entityStatus string

const (
	statusInactive   entityStatus = "inactive"
	statusStationary entityStatus = "stationary"
	statusMoving     entityStatus = "moving"
)

// wireAmbulance is the per-entity shape pushed to viewers.
type wireAmbulance struct {
	ID         string         `json:"id"`
	Username   string         `json:"username"`
	Location   LocationSample `json:"location"`
	Status     entityStatus   `json:"status"`
	RecentPath []Coordinate   `json:"recentPath"`
}

type snapshotMessage struct {
	Type       string                   `json:"type"`
	Ambulances map[string]wireAmbulance `json:"ambulances"`
	ServerTime int64                    `json:"serverTime"`
}

type removalMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Type    string    `json:"type"`
	Success bool      `json:"success"`
	User    *wireUser `json:"user,omitempty"`
	Message string    `json:"message,omitempty"`
}

// clientMessage is the inbound envelope; Type selects which fields matter.
type clientMessage struct {
	Type     string          `json:"type"`
	Username string          `json:"username,omitempty"`
	Password string          `json:"password,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Location *LocationSample `json:"location,omitempty"`
}
