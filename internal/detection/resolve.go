package detection

import "sort"

// Resolve ranks candidates and removes overlapping detections.
//
//  1. Sort by confidence, highest first. The sort is stable, so equal
//     scores keep discovery order.
//  2. Walk the sorted list and keep a candidate only if its overlap ratio
//     with every candidate already kept is at most MaxOverlapRatio.
//  3. Truncate to MaxCandidates(expectedCount).
//
// The input slice is not modified.
func (c Config) Resolve(candidates []Candidate, expectedCount int) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Candidate, 0, len(sorted))
	for _, cand := range sorted {
		overlaps := false
		for _, k := range kept {
			if OverlapRatio(cand.Box, k.Box) > c.MaxOverlapRatio {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, cand)
		}
	}

	if limit := c.MaxCandidates(expectedCount); len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// OverlapRatio returns the intersection area of a and b divided by the
// area of the smaller box. Boxes without area never overlap.
func OverlapRatio(a, b BoundingBox) float64 {
	ix := minInt(a.X+a.Width, b.X+b.Width) - maxInt(a.X, b.X)
	iy := minInt(a.Y+a.Height, b.Y+b.Height) - maxInt(a.Y, b.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	smaller := minInt(a.Area(), b.Area())
	if smaller <= 0 {
		return 0
	}
	return float64(ix*iy) / float64(smaller)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
