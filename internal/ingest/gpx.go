// Package ingest adapts external track formats (GPX files, encoded
// polylines) into the trackstore.TrackPointInput sequences the discovery
// core consumes. Parsing itself is an external collaborator's concern; this
// package is the thin, replaceable boundary between a file on disk and the
// core's data model.
package ingest

import (
	"fmt"
	"io"
	"os"

	"github.com/twpayne/go-gpx"

	"github.com/segfind/ridesegments/pkg/trackstore"
)

// LoadGPXFile reads a single GPX file and flattens every track segment's
// points, in document order, into one ordered point sequence.
func LoadGPXFile(filename string) ([]trackstore.TrackPointInput, error) {
	r, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening %s for reading: %v", filename, err)
	}
	defer r.Close()
	return LoadGPX(r)
}

// LoadGPX reads GPX content from r and flattens it the same way as
// LoadGPXFile.
func LoadGPX(r io.Reader) ([]trackstore.TrackPointInput, error) {
	g, err := gpx.Read(r)
	if err != nil {
		return nil, fmt.Errorf("error reading GPX track: %v", err)
	}
	var points []trackstore.TrackPointInput
	for _, trk := range g.Trk {
		for _, seg := range trk.TrkSeg {
			for _, p := range seg.TrkPt {
				tp := trackstore.TrackPointInput{Lat: p.Lat, Lon: p.Lon}
				if p.Ele != 0 {
					ele := p.Ele
					tp.Altitude = &ele
				}
				if !p.Time.IsZero() {
					ts := p.Time
					tp.Time = &ts
				}
				points = append(points, tp)
			}
		}
	}
	return points, nil
}
