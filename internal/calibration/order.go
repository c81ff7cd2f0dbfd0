package calibration

import (
	"sort"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// SuggestOrder proposes a playing order: candidate indices sorted by
// their angle around the common centroid, clockwise from 12 o'clock.
// Equal angles keep index order.
func SuggestOrder(candidates []detection.Candidate) []int {
	arr := detection.Arrange(candidates)
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return arr.Angles[order[a]] < arr.Angles[order[b]]
	})
	return order
}

// SelectionFromOrder builds a selection over n candidates by selecting
// each index of order in turn.
func SelectionFromOrder(n int, order []int) Selection {
	sel := NewSelection(n)
	for _, i := range order {
		sel = sel.Select(i)
	}
	return sel
}
