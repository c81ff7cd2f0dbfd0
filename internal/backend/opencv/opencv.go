//go:build opencv

package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// Available reports whether this binary was built with OpenCV support.
const Available = true

// Backend detects tongues with OpenCV. It keeps no per-run state and may
// be shared by goroutines.
type Backend struct {
	cfg  detection.Config
	opts Options
}

// New returns an OpenCV backend scoring boxes with cfg.
func New(cfg detection.Config, opts Options) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if opts.BlurSize < 1 || opts.BlurSize%2 == 0 {
		return nil, fmt.Errorf("blur size %d must be odd and positive", opts.BlurSize)
	}
	return &Backend{cfg: cfg, opts: opts}, nil
}

// Name implements detection.Backend.
func (b *Backend) Name() string { return Name }

// Detect implements detection.Backend.
func (b *Backend) Detect(buf detection.PixelBuffer, expectedCount int) ([]detection.Candidate, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	rgba, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC4, buf.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap pixel buffer: %w", err)
	}
	defer rgba.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: b.opts.BlurSize, Y: b.opts.BlurSize}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, b.opts.CannyLow, b.opts.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	var classified []detection.Candidate
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if contour.Size() <= b.cfg.MinContourPoints {
			continue
		}
		r := gocv.BoundingRect(contour)
		// OpenCV rectangles are half-open; candidate boxes are inclusive.
		box := detection.BoundingBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx() - 1, Height: r.Dy() - 1}
		if c, ok := b.cfg.ScoreBox(box, buf.Width, buf.Height); ok {
			classified = append(classified, c)
		}
	}

	return b.cfg.Resolve(classified, expectedCount), nil
}
