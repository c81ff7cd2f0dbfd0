package detection

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// angleEpsilon absorbs rounding in the centroid so a candidate straight
// above it reads as 0 rather than just under 2π.
const angleEpsilon = 1e-9

// Arrangement summarizes where candidates sit relative to each other.
// Slit drum tongues usually ring the drum top, so a small RadialSpread
// relative to MeanRadius means the candidates form a circle.
type Arrangement struct {
	CentroidX    float64   `json:"centroid_x"`
	CentroidY    float64   `json:"centroid_y"`
	MeanRadius   float64   `json:"mean_radius"`
	RadialSpread float64   `json:"radial_spread"` // population std dev of the radii
	Angles       []float64 `json:"angles"`        // radians clockwise from 12 o'clock, in [0, 2π)
}

// Arrange computes the arrangement of candidate centers. Angles[i]
// belongs to candidates[i]. An empty slice yields the zero value.
func Arrange(candidates []Candidate) Arrangement {
	if len(candidates) == 0 {
		return Arrangement{}
	}

	xs := make([]float64, len(candidates))
	ys := make([]float64, len(candidates))
	for i, c := range candidates {
		xs[i] = c.CenterX
		ys[i] = c.CenterY
	}
	cx := stat.Mean(xs, nil)
	cy := stat.Mean(ys, nil)

	radii := make([]float64, len(candidates))
	angles := make([]float64, len(candidates))
	for i := range candidates {
		dx := xs[i] - cx
		dy := ys[i] - cy
		radii[i] = math.Hypot(dx, dy)

		// Image Y grows downward, so atan2(dx, -dy) is 0 at the top and
		// increases clockwise.
		a := math.Atan2(dx, -dy)
		switch {
		case a < 0 && a > -angleEpsilon:
			a = 0
		case a < 0:
			a += 2 * math.Pi
		}
		angles[i] = a
	}
	meanR, varR := stat.PopMeanVariance(radii, nil)

	return Arrangement{
		CentroidX:    cx,
		CentroidY:    cy,
		MeanRadius:   meanR,
		RadialSpread: math.Sqrt(varR),
		Angles:       angles,
	}
}
