package detection

import (
	"errors"
	"fmt"
)

// ErrExpectedCount is returned when the expected tongue count is below 1.
var ErrExpectedCount = errors.New("expected count must be at least 1")

// Stats reports how many items survived each stage of one run.
type Stats struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	ExpectedCount int `json:"expected_count"`
	EdgePixels    int `json:"edge_pixels"`   // pixels above the edge threshold
	Contours      int `json:"contours"`      // contours kept by the tracer
	Classified    int `json:"classified"`    // candidates accepted by the classifier
	Resolved      int `json:"resolved"`      // candidates after overlap removal and truncation
	MaxCandidates int `json:"max_candidates"`
}

// Result is the output of Pipeline.Run.
type Result struct {
	Candidates []Candidate
	Stats      Stats
}

// Pipeline runs the built-in detection stages with a fixed Config.
//
// A Pipeline holds no per-run state and may be shared by goroutines;
// every run allocates its own intermediate maps.
type Pipeline struct {
	cfg Config
}

// NewPipeline validates cfg and returns a pipeline using it.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	return &Pipeline{cfg: cfg}, nil
}

// Config returns the thresholds this pipeline uses.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Name identifies the built-in backend.
func (p *Pipeline) Name() string {
	return "builtin"
}

// Run executes every stage in order:
//
//	Grayscale -> Smooth -> Sobel -> TraceContours -> Classify -> Resolve
//
// Only the input is validated; stage filtering is silent. An empty
// candidate list is a valid result.
func (p *Pipeline) Run(buf PixelBuffer, expectedCount int) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if expectedCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrExpectedCount, expectedCount)
	}

	w, h := buf.Width, buf.Height
	lum := Grayscale(buf)
	smoothed := Smooth(lum, w, h)
	edges := Sobel(smoothed, w, h)

	visited := make([]bool, w*h)
	contours := TraceContours(edges, w, h, p.cfg.EdgeThreshold, p.cfg.MinContourPoints, visited)
	classified := p.cfg.Classify(contours, w, h)
	resolved := p.cfg.Resolve(classified, expectedCount)

	return &Result{
		Candidates: resolved,
		Stats: Stats{
			Width:         w,
			Height:        h,
			ExpectedCount: expectedCount,
			EdgePixels:    countAbove(edges, p.cfg.EdgeThreshold),
			Contours:      len(contours),
			Classified:    len(classified),
			Resolved:      len(resolved),
			MaxCandidates: p.cfg.MaxCandidates(expectedCount),
		},
	}, nil
}

// Detect runs the pipeline and returns only the ranked candidates.
func (p *Pipeline) Detect(buf PixelBuffer, expectedCount int) ([]Candidate, error) {
	res, err := p.Run(buf, expectedCount)
	if err != nil {
		return nil, err
	}
	return res.Candidates, nil
}

// Detect is the package entry point: it runs the default pipeline on an
// RGBA byte slice of width×height pixels.
//
// The result holds at most DefaultConfig().MaxCandidates(expectedCount)
// candidates sorted by descending confidence.
func Detect(pix []byte, width, height, expectedCount int) ([]Candidate, error) {
	buf, err := NewPixelBuffer(pix, width, height)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{cfg: DefaultConfig()}
	return p.Detect(buf, expectedCount)
}

func countAbove(edges EdgeMap, threshold int) int {
	n := 0
	for _, v := range edges {
		if int(v) > threshold {
			n++
		}
	}
	return n
}
