package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/segfind/ridesegments/internal/ingest"
	"github.com/segfind/ridesegments/pkg/discover"
	"github.com/segfind/ridesegments/pkg/reference"
	"github.com/segfind/ridesegments/pkg/trackstore"
)

func main() {
	log.SetFlags(0)
	addr := os.Getenv("SEGMENTS_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	r := setupRouter()
	log.Printf("Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/discover", handleDiscover)
	}

	return r
}

// discoverRequest is the request body for POST /api/v1/discover: any mix of
// GPX file paths, RideWithGPS route IDs and encoded polylines, all loaded
// as tracks, plus optional discovery options.
type discoverRequest struct {
	GPXFiles         []string `json:"gpx_files"`
	RideWithGPSIDs   []int    `json:"ridewithgps_ids"`
	EncodedPolylines []string `json:"encoded_polylines"`
	GridSizeM        float64  `json:"grid_size_m"`
	MinRepsHotspot   int      `json:"min_reps_for_hotspot"`
	MaxLengthM       float64  `json:"max_length_m"`
	TolM             float64  `json:"tol_m"`
	WindowStep       int      `json:"window_step"`
	MinRuns          int      `json:"min_runs"`
	PrefilterMarginM float64  `json:"prefilter_margin_m"`
	DedupOverlapFrac float64  `json:"dedup_overlap_frac"`
}

type discoverResponse struct {
	RefTrackIdx int               `json:"ref_track_idx"`
	CloseTracks []int             `json:"close_tracks"`
	Segments    []segmentResponse `json:"segments"`
}

type segmentResponse struct {
	ID      string  `json:"id"`
	LengthM float64 `json:"length_m"`
	NumRuns int     `json:"num_runs"`
}

func handleDiscover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tracks [][]trackstore.TrackPointInput
	for _, f := range req.GPXFiles {
		points, err := ingest.LoadGPXFile(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tracks = append(tracks, points)
	}
	for _, id := range req.RideWithGPSIDs {
		points, err := ingest.LoadRideWithGPSTrack(id)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		tracks = append(tracks, points)
	}
	for _, enc := range req.EncodedPolylines {
		points, err := ingest.LoadEncodedPolyline(enc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tracks = append(tracks, points)
	}
	if len(tracks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no tracks supplied"})
		return
	}

	store, err := trackstore.BuildStore(tracks)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gridSizeM := req.GridSizeM
	if gridSizeM == 0 {
		gridSizeM = 50
	}
	minReps := req.MinRepsHotspot
	if minReps == 0 {
		minReps = 10
	}
	refIdx := reference.FindBestRefRide(store, gridSizeM, minReps)

	opts := discover.DefaultOptions()
	if req.MaxLengthM != 0 {
		opts.MaxLengthM = req.MaxLengthM
	}
	if req.TolM != 0 {
		opts.TolM = req.TolM
	}
	if req.WindowStep != 0 {
		opts.WindowStep = req.WindowStep
	}
	if req.MinRuns != 0 {
		opts.MinRuns = req.MinRuns
	}
	if req.PrefilterMarginM != 0 {
		opts.PrefilterMarginM = req.PrefilterMarginM
	}
	if req.DedupOverlapFrac != 0 {
		opts.DedupOverlapFrac = req.DedupOverlapFrac
	}

	result, err := discover.FindOverlappingSegments(store, refIdx, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	segs := make([]segmentResponse, len(result.Segments))
	for i, s := range result.Segments {
		segs[i] = segmentResponse{ID: s.ID, LengthM: s.LengthM, NumRuns: len(s.RunRanges)}
	}
	c.JSON(http.StatusOK, discoverResponse{
		RefTrackIdx: refIdx,
		CloseTracks: result.CloseTracks,
		Segments:    segs,
	})
}
