package detection

import (
	"math"
	"testing"
)

func TestFallback(t *testing.T) {
	got := DefaultConfig().Fallback(600, 600, 8)
	if len(got) != 8 {
		t.Fatalf("expected 8 candidates, got %d", len(got))
	}

	for i, c := range got {
		if c.Confidence != 0.1 {
			t.Errorf("[%d] confidence: got %v, want 0.1", i, c.Confidence)
		}
		if !c.IsFallback {
			t.Errorf("[%d] IsFallback not set", i)
		}
		if c.Box.Width != 40 || c.Box.Height != 60 {
			t.Errorf("[%d] box size: got %dx%d, want 40x60", i, c.Box.Width, c.Box.Height)
		}
		r := math.Hypot(c.CenterX-300, c.CenterY-300)
		if math.Abs(r-180) > 1e-9 {
			t.Errorf("[%d] radius: got %v, want 180", i, r)
		}
	}

	// First placeholder sits at 12 o'clock, the third at 3 o'clock.
	if math.Abs(got[0].CenterX-300) > 1e-9 || math.Abs(got[0].CenterY-120) > 1e-9 {
		t.Errorf("first center: got (%v,%v), want (300,120)", got[0].CenterX, got[0].CenterY)
	}
	if got[0].Box.X != 280 || got[0].Box.Y != 90 {
		t.Errorf("first box: got (%d,%d), want (280,90)", got[0].Box.X, got[0].Box.Y)
	}
	if math.Abs(got[2].CenterX-480) > 1e-9 || math.Abs(got[2].CenterY-300) > 1e-9 {
		t.Errorf("third center: got (%v,%v), want (480,300)", got[2].CenterX, got[2].CenterY)
	}
}

func TestFallback_EvenSpacing(t *testing.T) {
	got := DefaultConfig().Fallback(600, 600, 6)
	arr := Arrange(got)
	for i := range got {
		want := 2 * math.Pi * float64(i) / 6
		if !angleClose(arr.Angles[i], want) {
			t.Errorf("[%d] angle: got %v, want %v", i, arr.Angles[i], want)
		}
	}
}

func TestFallback_UsesShorterSide(t *testing.T) {
	got := DefaultConfig().Fallback(800, 400, 4)
	for i, c := range got {
		if r := math.Hypot(c.CenterX-400, c.CenterY-200); math.Abs(r-120) > 1e-9 {
			t.Errorf("[%d] radius: got %v, want 120", i, r)
		}
	}
}

func TestFallback_NoCount(t *testing.T) {
	if got := DefaultConfig().Fallback(600, 600, 0); len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}
