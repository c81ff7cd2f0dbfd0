package detection

import "math"

// Fallback builds expectedCount placeholder candidates evenly spaced on a
// circle of radius FallbackRadiusFraction × min(width, height) around the
// image center.
//
// The first placeholder sits at 12 o'clock and the rest follow clockwise
// (image Y grows downward). Each gets a FallbackBoxWidth×FallbackBoxHeight
// box centered on its circle point, FallbackConfidence, and IsFallback set.
func (c Config) Fallback(width, height, expectedCount int) []Candidate {
	if expectedCount <= 0 {
		return nil
	}

	cx := float64(width) / 2
	cy := float64(height) / 2
	radius := c.FallbackRadiusFraction * float64(minInt(width, height))
	bw, bh := c.FallbackBoxWidth, c.FallbackBoxHeight

	candidates := make([]Candidate, 0, expectedCount)
	for i := 0; i < expectedCount; i++ {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(expectedCount)
		px := cx + radius*math.Cos(angle)
		py := cy + radius*math.Sin(angle)

		box := BoundingBox{
			X:      int(math.Round(px - float64(bw)/2)),
			Y:      int(math.Round(py - float64(bh)/2)),
			Width:  bw,
			Height: bh,
		}
		candidates = append(candidates, Candidate{
			Box:         box,
			Area:        box.Area(),
			AspectRatio: float64(bw) / float64(bh),
			CenterX:     px,
			CenterY:     py,
			Confidence:  clampUnit(c.FallbackConfidence),
			IsFallback:  true,
		})
	}
	return candidates
}
