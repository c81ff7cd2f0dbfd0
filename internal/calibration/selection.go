package calibration

// Selection is the ordered set of candidate indices a user has picked.
// Insertion order is selection order, and no index appears twice.
//
// The zero value is an empty selection over zero candidates. Use
// NewSelection to bind it to a candidate count.
type Selection struct {
	n       int
	ordered []int
}

// NewSelection returns an empty selection over n candidates.
func NewSelection(n int) Selection {
	if n < 0 {
		n = 0
	}
	return Selection{n: n}
}

// Select appends i to the order. Selecting an index that is already
// selected, or that is outside [0, n), returns s unchanged.
func (s Selection) Select(i int) Selection {
	if !s.inRange(i) || s.IsSelected(i) {
		return s
	}
	next := make([]int, len(s.ordered), len(s.ordered)+1)
	copy(next, s.ordered)
	return Selection{n: s.n, ordered: append(next, i)}
}

// Deselect removes i from the order. The remaining indices keep their
// relative order and are renumbered 1..k without gaps.
func (s Selection) Deselect(i int) Selection {
	pos := s.position(i)
	if pos < 0 {
		return s
	}
	next := make([]int, 0, len(s.ordered)-1)
	next = append(next, s.ordered[:pos]...)
	next = append(next, s.ordered[pos+1:]...)
	return Selection{n: s.n, ordered: next}
}

// Clear returns an empty selection over the same candidates.
func (s Selection) Clear() Selection {
	return Selection{n: s.n}
}

// Order returns a copy of the selected indices in selection order.
func (s Selection) Order() []int {
	out := make([]int, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// DisplayOrder is the 1-based position of i in the order, or 0 when i is
// not selected.
func (s Selection) DisplayOrder(i int) int {
	return s.position(i) + 1
}

// IsSelected reports whether i is in the order.
func (s Selection) IsSelected(i int) bool {
	return s.position(i) >= 0
}

// Len is the number of selected indices.
func (s Selection) Len() int {
	return len(s.ordered)
}

// Candidates is the number of candidates the selection ranges over.
func (s Selection) Candidates() int {
	return s.n
}

func (s Selection) inRange(i int) bool {
	return i >= 0 && i < s.n
}

func (s Selection) position(i int) int {
	for pos, idx := range s.ordered {
		if idx == i {
			return pos
		}
	}
	return -1
}
