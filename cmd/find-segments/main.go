package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"

	"github.com/urfave/cli/v2"

	"github.com/segfind/ridesegments/internal/ingest"
	"github.com/segfind/ridesegments/pkg/discover"
	"github.com/segfind/ridesegments/pkg/reference"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

func main() {
	log.SetFlags(0)
	app := &cli.App{
		Name:  "find-segments",
		Usage: "Discover repeated route segments across a directory of GPX tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tracks",
				Aliases:  []string{"t"},
				Usage:    "Directory of GPX files to load",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "max-length-m",
				Usage: "Target minimum candidate segment length, in meters",
				Value: discover.DefaultOptions().MaxLengthM,
			},
			&cli.Float64Flag{
				Name:  "tol-m",
				Usage: "Frechet acceptance tolerance, in meters",
				Value: discover.DefaultOptions().TolM,
			},
			&cli.IntFlag{
				Name:  "min-runs",
				Usage: "Minimum number of supporting tracks per segment",
				Value: discover.DefaultOptions().MinRuns,
			},
			&cli.Float64Flag{
				Name:  "grid-size-m",
				Usage: "Hotspot cell size for reference-ride selection, in meters",
				Value: 50,
			},
			&cli.IntFlag{
				Name:  "min-reps-for-hotspot",
				Usage: "Minimum distinct tracks visiting a cell for it to count as a hotspot",
				Value: 10,
			},
		},
		Action: runFindSegments,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runFindSegments(c *cli.Context) error {
	store, err := loadTrackDirectory(c.String("tracks"))
	if err != nil {
		return err
	}
	log.Printf("Loaded %d tracks", store.NumTracks())

	refIdx := reference.FindBestRefRide(store, c.Float64("grid-size-m"), c.Int("min-reps-for-hotspot"))
	log.Printf("Selected track %d as reference", refIdx)

	opts := discover.DefaultOptions()
	opts.MaxLengthM = c.Float64("max-length-m")
	opts.TolM = c.Float64("tol-m")
	opts.MinRuns = c.Int("min-runs")

	result, err := discover.FindOverlappingSegments(store, refIdx, opts)
	if err != nil {
		return fmt.Errorf("error discovering segments: %v", err)
	}
	log.Printf("Found %d segments across %d close tracks", len(result.Segments), len(result.CloseTracks))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(summarize(result))
}

type segmentSummary struct {
	ID       string  `json:"id"`
	LengthM  float64 `json:"length_m"`
	NumRuns  int     `json:"num_runs"`
	RefFirst int     `json:"ref_first"`
	RefLast  int     `json:"ref_last"`
}

func summarize(result discover.Result) []segmentSummary {
	out := make([]segmentSummary, len(result.Segments))
	for i, s := range result.Segments {
		out[i] = segmentSummary{
			ID:       s.ID,
			LengthM:  s.LengthM,
			NumRuns:  len(s.RunRanges),
			RefFirst: s.RefRange[0],
			RefLast:  s.RefRange[len(s.RefRange)-1],
		}
	}
	return out
}

func loadTrackDirectory(dirName string) (*trackstore.Store, error) {
	files, err := ioutil.ReadDir(dirName)
	if err != nil {
		return nil, err
	}
	var tracks [][]trackstore.TrackPointInput
	for _, f := range files {
		if f.IsDir() || path.Ext(f.Name()) != ".gpx" {
			continue
		}
		filename := path.Join(dirName, f.Name())
		points, err := ingest.LoadGPXFile(filename)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %v", filename, err)
		}
		if len(points) < 2 {
			log.Printf("Skipping %s: fewer than 2 valid points", filename)
			continue
		}
		tracks = append(tracks, points)
	}
	return trackstore.BuildStore(tracks)
}
