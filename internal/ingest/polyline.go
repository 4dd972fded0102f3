package ingest

import (
	"fmt"

	polyline "github.com/twpayne/go-polyline"

	"github.com/segfind/ridesegments/pkg/trackstore"
)

// LoadEncodedPolyline decodes a Google/OSRM-style encoded polyline string
// into a point sequence. The wire format encodes [lat, lon] pairs; each
// pair is copied into a TrackPointInput's Lat and Lon fields.
func LoadEncodedPolyline(encoded string) ([]trackstore.TrackPointInput, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("error decoding polyline: %v", err)
	}
	points := make([]trackstore.TrackPointInput, len(coords))
	for i, c := range coords {
		points[i] = trackstore.TrackPointInput{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}
