package ingest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/segfind/ridesegments/pkg/trackstore"
)

// ErrTrackNotFound is returned when RideWithGPS has no public track at the
// requested route ID.
type ErrTrackNotFound struct {
	RouteID int
}

func (e *ErrTrackNotFound) Error() string {
	return fmt.Sprintf("RideWithGPS track %d not found", e.RouteID)
}

// LoadRideWithGPSTrack fetches a public RideWithGPS route by ID and parses
// it into a point sequence ready for trackstore.BuildStore.
func LoadRideWithGPSTrack(routeID int) ([]trackstore.TrackPointInput, error) {
	url := fmt.Sprintf("https://ridewithgps.com/routes/%d.gpx?sub_format=track", routeID)
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("error getting %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response from %s: %v", url, err)
	}
	if isNotFoundPage(data) {
		return nil, &ErrTrackNotFound{RouteID: routeID}
	}
	return LoadGPX(bytes.NewReader(data))
}

func isNotFoundPage(data []byte) bool {
	return bytes.HasPrefix(data, []byte("<!DOCTYPE html>")) && bytes.Contains(data, []byte("Error (404 not found)"))
}
