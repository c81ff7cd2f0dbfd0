package calibration

import (
	"reflect"
	"testing"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

func at(x, y float64) detection.Candidate {
	return detection.Candidate{CenterX: x, CenterY: y}
}

func TestSuggestOrder(t *testing.T) {
	// left, bottom, top, right around (100, 100)
	in := []detection.Candidate{
		at(40, 100),
		at(100, 160),
		at(100, 40),
		at(160, 100),
	}
	want := []int{2, 3, 1, 0}
	if got := SuggestOrder(in); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSuggestOrder_Fallback(t *testing.T) {
	// Fallback placeholders are generated clockwise from 12 o'clock, so
	// the suggested order is the identity.
	in := detection.DefaultConfig().Fallback(600, 600, 8)
	want := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if got := SuggestOrder(in); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSuggestOrder_Empty(t *testing.T) {
	if got := SuggestOrder(nil); len(got) != 0 {
		t.Errorf("expected empty order, got %v", got)
	}
}

func TestSelectionFromOrder(t *testing.T) {
	sel := SelectionFromOrder(4, []int{3, 1, 3, 9})
	if got := sel.Order(); !reflect.DeepEqual(got, []int{3, 1}) {
		t.Errorf("got %v", got)
	}
}
