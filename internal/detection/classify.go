package detection

// Classify turns contours into tongue candidates.
//
// Each contour's bounding box is scored with ScoreBox; rejected boxes
// produce nothing. Candidates come out in contour discovery order, which
// the resolver relies on as its tie-break.
func (c Config) Classify(contours []Contour, imageWidth, imageHeight int) []Candidate {
	candidates := make([]Candidate, 0, len(contours))
	for _, contour := range contours {
		if len(contour) <= c.MinContourPoints {
			continue
		}
		if cand, ok := c.ScoreBox(contour.Bounds(), imageWidth, imageHeight); ok {
			candidates = append(candidates, cand)
		}
	}
	return candidates
}

// ScoreBox applies the geometric filters to a bounding box and, when it
// survives, returns a candidate carrying its confidence.
//
// A box is rejected when it has no extent, when its area is outside
// [MinAreaFraction, MaxAreaFraction] of the image, when its aspect ratio
// is outside [MinAspectRatio, MaxAspectRatio], or when it is narrower or
// shorter than the minimum size fractions.
//
// Confidence starts at BaseConfidence, gains AspectBonus for aspect
// ratios in [AspectBonusMin, AspectBonusMax] and AreaBonus for areas in
// (AreaBonusMin, AreaBonusMax), and is clamped to [0, 1].
func (c Config) ScoreBox(box BoundingBox, imageWidth, imageHeight int) (Candidate, bool) {
	if box.Width <= 0 || box.Height <= 0 {
		return Candidate{}, false
	}

	imageArea := float64(imageWidth) * float64(imageHeight)
	area := box.Area()
	fArea := float64(area)
	aspect := float64(box.Width) / float64(box.Height)

	if fArea < c.MinAreaFraction*imageArea || fArea > c.MaxAreaFraction*imageArea {
		return Candidate{}, false
	}
	if aspect < c.MinAspectRatio || aspect > c.MaxAspectRatio {
		return Candidate{}, false
	}
	if float64(box.Width) < c.MinWidthFraction*float64(imageWidth) ||
		float64(box.Height) < c.MinHeightFraction*float64(imageHeight) {
		return Candidate{}, false
	}

	confidence := c.BaseConfidence
	if aspect >= c.AspectBonusMin && aspect <= c.AspectBonusMax {
		confidence += c.AspectBonus
	}
	if fArea > c.AreaBonusMin && fArea < c.AreaBonusMax {
		confidence += c.AreaBonus
	}

	return Candidate{
		Box:         box,
		Area:        area,
		AspectRatio: aspect,
		CenterX:     float64(box.X) + float64(box.Width)/2,
		CenterY:     float64(box.Y) + float64(box.Height)/2,
		Confidence:  clampUnit(confidence),
	}, true
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
