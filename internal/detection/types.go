package detection

import (
	"errors"
	"fmt"
	"math"
)

// ErrInputShape is returned when a pixel buffer does not describe a
// width×height RGBA image. No partial results accompany it.
var ErrInputShape = errors.New("invalid pixel buffer shape")

// ErrBackendUnavailable is returned by backend constructors that were not
// compiled into the binary.
var ErrBackendUnavailable = errors.New("detection backend unavailable")

// PixelBuffer is an immutable RGBA image supplied by the caller.
//
// Pix holds Width×Height×4 bytes in row-major order, four bytes per pixel
// (R, G, B, A), alpha not premultiplied. The pipeline only reads it.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewPixelBuffer validates the buffer shape and wraps it.
func NewPixelBuffer(pix []byte, width, height int) (PixelBuffer, error) {
	buf := PixelBuffer{Width: width, Height: height, Pix: pix}
	if err := buf.Validate(); err != nil {
		return PixelBuffer{}, err
	}
	return buf, nil
}

// Validate reports ErrInputShape when the dimensions are not positive or
// the byte length is not Width×Height×4.
func (b PixelBuffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInputShape, b.Width, b.Height)
	}
	if b.Width > math.MaxInt/4/b.Height {
		return fmt.Errorf("%w: dimensions %dx%d overflow the buffer size", ErrInputShape, b.Width, b.Height)
	}
	want := b.Width * b.Height * 4
	if len(b.Pix) != want {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d RGBA",
			ErrInputShape, len(b.Pix), want, b.Width, b.Height)
	}
	return nil
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is one connected region of strong edge pixels. Point order is
// the order the tracer reached them and carries no meaning.
type Contour []Point

// BoundingBox is the axis-aligned box enclosing a region.
//
// Width and Height are the distance between the extreme coordinates
// (max - min), matching how contour boxes are measured.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width × Height.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Bounds computes the bounding box of the contour's points.
// An empty contour yields the zero box.
func (c Contour) Bounds() BoundingBox {
	if len(c) == 0 {
		return BoundingBox{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := minX, minY
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Candidate is a region that looks like a tongue, or a fallback
// placeholder when detection found nothing usable.
//
// Candidates are never mutated once the classifier (or the fallback
// generator) has built them.
type Candidate struct {
	// Box is the bounding box of the region. Width and Height are > 0.
	Box BoundingBox `json:"box"`

	// Area is Box.Width × Box.Height in square pixels.
	Area int `json:"area"`

	// AspectRatio is Box.Width / Box.Height.
	AspectRatio float64 `json:"aspect_ratio"`

	// CenterX and CenterY locate the middle of the box.
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`

	// Confidence scores how tongue-like the geometry is (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// IsFallback marks synthetic placeholders from Fallback.
	IsFallback bool `json:"is_fallback"`
}

// Backend is anything that turns a pixel buffer into ranked candidates.
// The built-in Pipeline is one; an OpenCV binding is another.
type Backend interface {
	Name() string
	Detect(buf PixelBuffer, expectedCount int) ([]Candidate, error)
}
