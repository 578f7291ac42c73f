package main

import "time"

const (
	// inactiveAfter is tuned to the client update cadence (at least one fix
	// every 3s while tracking), so a single missed beat does not flip status.
	inactiveAfter = 30 * time.Second

	// movingThresholdMps is about 2 km/h, enough to separate genuine motion
	// from GPS jitter around a parked vehicle.
	movingThresholdMps = 0.56
)

// classify derives the display status for one entity. An entity gone quiet
// longer than inactiveAfter is inactive no matter what its history says.
// Otherwise a client-reported speed wins when present; failing that, the
// speed implied by the span of the history buffer decides.
func classify(e trackedEntity, now time.Time) entityStatus {
	if now.Sub(e.Current.Timestamp) > inactiveAfter {
		return statusInactive
	}
	if e.Current.SpeedMps != nil && *e.Current.SpeedMps > movingThresholdMps {
		return statusMoving
	}
	if len(e.History) >= 2 {
		oldest := e.History[0]
		newest := e.History[len(e.History)-1]
		if speed, ok := impliedSpeedMps(oldest, newest); ok && speed > movingThresholdMps {
			return statusMoving
		}
	}
	return statusStationary
}
