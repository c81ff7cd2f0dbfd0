package detection

import (
	"fmt"
	"math"
)

// Config is the single table of thresholds used by the pipeline.
//
// The defaults reproduce the reference behavior exactly; tests and
// alternative backends may tune a copy without touching the stage code.
type Config struct {
	// EdgeThreshold is the gradient magnitude a pixel must exceed to be
	// part of a contour.
	EdgeThreshold int

	// MinContourPoints: contours with this many points or fewer are noise.
	MinContourPoints int

	// Area bounds as a fraction of the image area. The lower bound keeps
	// roughly 500 px² on a 3.6 megapixel photo.
	MinAreaFraction float64
	MaxAreaFraction float64

	// Accepted range of box width / height.
	MinAspectRatio float64
	MaxAspectRatio float64

	// Minimum box size as a fraction of the image width and height.
	MinWidthFraction  float64
	MinHeightFraction float64

	// Confidence formula: Base, plus AspectBonus when the aspect ratio is
	// within [AspectBonusMin, AspectBonusMax], plus AreaBonus when the
	// area is strictly within (AreaBonusMin, AreaBonusMax).
	BaseConfidence float64
	AspectBonusMin float64
	AspectBonusMax float64
	AspectBonus    float64
	AreaBonusMin   float64
	AreaBonusMax   float64
	AreaBonus      float64

	// MaxOverlapRatio is the largest intersection / smaller-area ratio two
	// resolved candidates may share.
	MaxOverlapRatio float64

	// The resolved list is cut to max(expected×TruncateFactor,
	// expected+TruncateSlack), rounded down.
	TruncateFactor float64
	TruncateSlack  int

	// Fallback arrangement.
	FallbackConfidence     float64
	FallbackRadiusFraction float64
	FallbackBoxWidth       int
	FallbackBoxHeight      int
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold:    30,
		MinContourPoints: 10,

		MinAreaFraction: 0.00014,
		MaxAreaFraction: 0.25,

		MinAspectRatio: 0.75,
		MaxAspectRatio: 8.0,

		MinWidthFraction:  0.01,
		MinHeightFraction: 0.01,

		BaseConfidence: 0.5,
		AspectBonusMin: 2.0,
		AspectBonusMax: 4.0,
		AspectBonus:    0.3,
		AreaBonusMin:   1000,
		AreaBonusMax:   50000,
		AreaBonus:      0.2,

		MaxOverlapRatio: 0.30,

		TruncateFactor: 1.5,
		TruncateSlack:  5,

		FallbackConfidence:     0.1,
		FallbackRadiusFraction: 0.3,
		FallbackBoxWidth:       40,
		FallbackBoxHeight:      60,
	}
}

// Validate rejects tables that cannot describe a sensible filter.
func (c Config) Validate() error {
	switch {
	case c.EdgeThreshold < 0 || c.EdgeThreshold > 255:
		return fmt.Errorf("edge threshold %d outside 0-255", c.EdgeThreshold)
	case c.MinContourPoints < 0:
		return fmt.Errorf("min contour points %d is negative", c.MinContourPoints)
	case c.MinAreaFraction < 0 || c.MaxAreaFraction <= 0 || c.MinAreaFraction > c.MaxAreaFraction:
		return fmt.Errorf("area fractions [%g, %g] invalid", c.MinAreaFraction, c.MaxAreaFraction)
	case c.MinAspectRatio < 0 || c.MinAspectRatio > c.MaxAspectRatio:
		return fmt.Errorf("aspect ratio range [%g, %g] invalid", c.MinAspectRatio, c.MaxAspectRatio)
	case c.MinWidthFraction < 0 || c.MinHeightFraction < 0:
		return fmt.Errorf("size fractions must not be negative")
	case c.MaxOverlapRatio < 0 || c.MaxOverlapRatio > 1:
		return fmt.Errorf("max overlap ratio %g outside 0-1", c.MaxOverlapRatio)
	case c.TruncateFactor < 1 || c.TruncateSlack < 0:
		return fmt.Errorf("truncation factor %g / slack %d invalid", c.TruncateFactor, c.TruncateSlack)
	case c.FallbackBoxWidth <= 0 || c.FallbackBoxHeight <= 0:
		return fmt.Errorf("fallback box %dx%d must be positive", c.FallbackBoxWidth, c.FallbackBoxHeight)
	}
	return nil
}

// MaxCandidates is the length the resolver truncates to for a given
// expected count: max(floor(expected×TruncateFactor), expected+TruncateSlack).
func (c Config) MaxCandidates(expectedCount int) int {
	scaled := int(math.Floor(float64(expectedCount) * c.TruncateFactor))
	slack := expectedCount + c.TruncateSlack
	if scaled > slack {
		return scaled
	}
	return slack
}
