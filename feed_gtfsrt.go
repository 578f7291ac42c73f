package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// feedVehicle is one position pulled from an external AVL feed, already
// normalized to the tracker's sample shape.
type feedVehicle struct {
	ID          string
	DisplayName string
	Sample      LocationSample
}

type vehicleFeedSource interface {
	Fetch(ctx context.Context) ([]feedVehicle, error)
}

// gtfsRtFeedSource reads a GTFS-RT VehiclePositions feed (protobuf).
type gtfsRtFeedSource struct {
	url        string
	httpClient *http.Client
}

func newGtfsRtFeedSource(url string, timeout time.Duration) *gtfsRtFeedSource {
	return &gtfsRtFeedSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *gtfsRtFeedSource) Fetch(ctx context.Context) ([]feedVehicle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt http status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, err
	}

	vehicles := make([]feedVehicle, 0, len(feed.Entity))
	for _, ent := range feed.Entity {
		if ent == nil || ent.Vehicle == nil {
			continue
		}
		vp := ent.Vehicle
		if vp.Vehicle == nil || vp.Position == nil {
			continue
		}
		id := vp.Vehicle.Id
		if id == nil || *id == "" {
			continue
		}
		if vp.Position.Latitude == nil || vp.Position.Longitude == nil {
			continue
		}

		sample := LocationSample{
			Coordinate: Coordinate{
				Lat: float64(*vp.Position.Latitude),
				Lng: float64(*vp.Position.Longitude),
			},
			Timestamp: time.Now(),
		}
		if vp.Timestamp != nil {
			sample.Timestamp = time.Unix(int64(*vp.Timestamp), 0)
		}
		if vp.Position.Speed != nil {
			speed := float64(*vp.Position.Speed)
			sample.SpeedMps = &speed
		}
		if vp.Position.Bearing != nil {
			heading := float64(*vp.Position.Bearing)
			sample.HeadingDeg = &heading
		}

		name := *id
		if vp.Vehicle.Label != nil && *vp.Vehicle.Label != "" {
			name = *vp.Vehicle.Label
		}
		vehicles = append(vehicles, feedVehicle{ID: *id, DisplayName: name, Sample: sample})
	}
	return vehicles, nil
}

// feedPoller periodically pulls the external feed and upserts every vehicle
// into the store, so fleet positions flow through the same broadcast path as
// ambulance updates. The store's own dedup keeps unchanged positions from
// growing history.
type feedPoller struct {
	feed     vehicleFeedSource
	store    *entityStore
	interval time.Duration
}

func newFeedPoller(feed vehicleFeedSource, store *entityStore, interval time.Duration) *feedPoller {
	return &feedPoller{feed: feed, store: store, interval: interval}
}

func (p *feedPoller) run(ctx context.Context) {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.tick(ctx)
			t.Reset(p.interval)
		}
	}
}

func (p *feedPoller) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	vehicles, err := p.feed.Fetch(cctx)
	if err != nil {
		log.Printf("feed poll error: %v", err)
		return
	}
	for _, v := range vehicles {
		if err := p.store.upsert(v.ID, v.DisplayName, v.Sample); err != nil {
			log.Printf("feed vehicle %s rejected: %v", v.ID, err)
		}
	}
}
