package calibration

import (
	"reflect"
	"testing"
)

func TestSelection_SelectDeselectRenumbers(t *testing.T) {
	a, b := 2, 5
	sel := NewSelection(8).Select(a).Select(b).Deselect(a)

	if got := sel.Order(); !reflect.DeepEqual(got, []int{b}) {
		t.Fatalf("order: got %v, want [%d]", got, b)
	}
	if got := sel.DisplayOrder(b); got != 1 {
		t.Errorf("display order of %d: got %d, want 1", b, got)
	}
	if sel.IsSelected(a) {
		t.Errorf("%d should no longer be selected", a)
	}
}

func TestSelection_Transitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(Selection) Selection
		want []int
	}{
		{"empty", func(s Selection) Selection { return s }, []int{}},
		{"insertion order", func(s Selection) Selection { return s.Select(3).Select(0).Select(2) }, []int{3, 0, 2}},
		{"select twice is a no-op", func(s Selection) Selection { return s.Select(1).Select(1) }, []int{1}},
		{"deselect unselected is a no-op", func(s Selection) Selection { return s.Select(1).Deselect(2) }, []int{1}},
		{"deselect middle closes the gap", func(s Selection) Selection { return s.Select(1).Select(2).Select(3).Deselect(2) }, []int{1, 3}},
		{"reselect goes to the end", func(s Selection) Selection { return s.Select(1).Select(2).Deselect(1).Select(1) }, []int{2, 1}},
		{"clear", func(s Selection) Selection { return s.Select(1).Select(2).Clear() }, []int{}},
		{"out of range skipped", func(s Selection) Selection { return s.Select(-1).Select(4).Select(99).Deselect(-3) }, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.run(NewSelection(4))
			if !reflect.DeepEqual(got.Order(), tt.want) {
				t.Errorf("order: got %v, want %v", got.Order(), tt.want)
			}
			if got.Len() != len(tt.want) {
				t.Errorf("len: got %d, want %d", got.Len(), len(tt.want))
			}
			for pos, idx := range tt.want {
				if d := got.DisplayOrder(idx); d != pos+1 {
					t.Errorf("display order of %d: got %d, want %d", idx, d, pos+1)
				}
			}
		})
	}
}

func TestSelection_Immutable(t *testing.T) {
	base := NewSelection(5).Select(0).Select(1)
	_ = base.Select(2)
	_ = base.Deselect(0)
	_ = base.Clear()

	if got := base.Order(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("receiver changed: got %v", got)
	}

	order := base.Order()
	order[0] = 4
	if base.IsSelected(4) {
		t.Error("Order must return a copy")
	}
}

func TestSelection_SharedPrefix(t *testing.T) {
	// Two selections derived from the same value must not share storage.
	base := NewSelection(5).Select(0)
	x := base.Select(1)
	y := base.Select(2)
	if !reflect.DeepEqual(x.Order(), []int{0, 1}) || !reflect.DeepEqual(y.Order(), []int{0, 2}) {
		t.Errorf("got x=%v y=%v", x.Order(), y.Order())
	}
}

func TestSelection_NotSelected(t *testing.T) {
	sel := NewSelection(3)
	if sel.DisplayOrder(1) != 0 {
		t.Error("unselected index should have display order 0")
	}
	if sel.Candidates() != 3 {
		t.Errorf("candidates: got %d", sel.Candidates())
	}
	if NewSelection(-2).Candidates() != 0 {
		t.Error("negative count should clamp to 0")
	}
}
