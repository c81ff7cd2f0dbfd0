package detection

import (
	"errors"
	"image/color"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestDetect_SingleBar(t *testing.T) {
	// A 20x10 bar: the Sobel ring reaches two pixels past each side, so
	// the traced box is 23x13 (aspect 1.77, no aspect bonus). See the
	// scoring decision in DESIGN.md.
	img := createTestImage(100, 100, color.Black)
	fillRect(img, 40, 45, 20, 10, color.White)

	got, err := Detect(img.Pix, 100, 100, 1)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.IsFallback {
		t.Error("candidate should not be a fallback")
	}
	want := BoundingBox{X: 38, Y: 43, Width: 23, Height: 13}
	if c.Box != want {
		t.Errorf("box: got %+v, want %+v", c.Box, want)
	}
	if !approxEqual(c.Confidence, 0.5) {
		t.Errorf("confidence: got %v, want 0.5", c.Confidence)
	}
	if c.CenterX != 49.5 || c.CenterY != 49.5 {
		t.Errorf("center: got (%v,%v), want (49.5,49.5)", c.CenterX, c.CenterY)
	}
}

func TestDetect_TongueShapedBar(t *testing.T) {
	// 40x10 traces to 43x13: aspect 3.3 earns the aspect bonus, area 559
	// stays under the area bonus band.
	img := createTestImage(100, 100, color.Black)
	fillRect(img, 30, 45, 40, 10, color.White)

	got, err := Detect(img.Pix, 100, 100, 1)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 candidate, got %d", len(got))
	}
	if got[0].Confidence < 0.8-1e-9 || got[0].Confidence > 0.8+1e-9 {
		t.Errorf("confidence: got %v, want 0.8", got[0].Confidence)
	}
	want := BoundingBox{X: 28, Y: 43, Width: 43, Height: 13}
	if got[0].Box != want {
		t.Errorf("box: got %+v, want %+v", got[0].Box, want)
	}
}

func TestDetect_FourBars(t *testing.T) {
	img := createTestImage(200, 200, color.Black)
	for _, p := range [][2]int{{20, 20}, {120, 20}, {20, 120}, {120, 120}} {
		fillRect(img, p[0], p[1], 60, 20, color.White)
	}

	got, err := Detect(img.Pix, 200, 200, 4)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(got))
	}
	// All score 1.0, so discovery order is kept.
	wantXY := [][2]int{{18, 18}, {118, 18}, {18, 118}, {118, 118}}
	for i, c := range got {
		if !approxEqual(c.Confidence, 1.0) {
			t.Errorf("[%d] confidence: got %v, want 1.0", i, c.Confidence)
		}
		if c.Box.X != wantXY[i][0] || c.Box.Y != wantXY[i][1] || c.Box.Width != 63 || c.Box.Height != 23 {
			t.Errorf("[%d] box: got %+v", i, c.Box)
		}
	}
}

func TestDetect_EmptyImages(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
	}{
		{"black", color.Black},
		{"gray", color.RGBA{128, 128, 128, 255}},
		{"white", color.White},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createTestImage(100, 100, tt.c)
			got, err := Detect(img.Pix, 100, 100, 8)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("expected no candidates, got %d", len(got))
			}
		})
	}
}

func TestDetect_InputShape(t *testing.T) {
	tests := []struct {
		name          string
		pix           []byte
		width, height int
	}{
		{"short buffer", make([]byte, 10*10*4-1), 10, 10},
		{"long buffer", make([]byte, 10*10*4+4), 10, 10},
		{"rgb not rgba", make([]byte, 10*10*3), 10, 10},
		{"zero width", []byte{}, 0, 10},
		{"negative height", []byte{}, 10, -1},
		{"size overflows", []byte{}, math.MaxInt / 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.pix, tt.width, tt.height, 8)
			if !errors.Is(err, ErrInputShape) {
				t.Fatalf("expected ErrInputShape, got %v", err)
			}
			if got != nil {
				t.Error("no partial results expected")
			}
		})
	}
}

func TestDetect_ExpectedCount(t *testing.T) {
	img := createTestImage(10, 10, color.Black)
	if _, err := Detect(img.Pix, 10, 10, 0); !errors.Is(err, ErrExpectedCount) {
		t.Errorf("expected ErrExpectedCount, got %v", err)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	img := drumImage(300, 9, 40, 14)

	first, err := Detect(img.Pix, 300, 300, 9)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	second, err := Detect(img.Pix, 300, 300, 9)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs on the same input differ")
	}
	if len(first) == 0 {
		t.Error("expected candidates on the drum image")
	}
}

func TestDetect_DoesNotModifyInput(t *testing.T) {
	img := drumImage(120, 5, 20, 8)
	before := make([]byte, len(img.Pix))
	copy(before, img.Pix)

	if _, err := Detect(img.Pix, 120, 120, 5); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if !reflect.DeepEqual(before, img.Pix) {
		t.Error("Detect modified the pixel buffer")
	}
}

func TestDetect_OutputInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultConfig()

	for run := 0; run < 12; run++ {
		w := 80 + rng.Intn(160)
		h := 80 + rng.Intn(160)
		img := createTestImage(w, h, color.RGBA{uint8(rng.Intn(80)), uint8(rng.Intn(80)), uint8(rng.Intn(80)), 255})
		for i := 0; i < 5+rng.Intn(25); i++ {
			rw := 3 + rng.Intn(w/3)
			rh := 3 + rng.Intn(h/3)
			fillRect(img, rng.Intn(w-rw), rng.Intn(h-rh), rw, rh,
				color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
		expected := 1 + rng.Intn(12)

		got, err := Detect(img.Pix, w, h, expected)
		if err != nil {
			t.Fatalf("run %d: Detect failed: %v", run, err)
		}

		if len(got) > cfg.MaxCandidates(expected) {
			t.Errorf("run %d: %d candidates exceeds limit %d", run, len(got), cfg.MaxCandidates(expected))
		}
		for i, c := range got {
			if c.Confidence < 0 || c.Confidence > 1 {
				t.Errorf("run %d [%d]: confidence %v outside [0,1]", run, i, c.Confidence)
			}
			if c.Box.Width <= 0 || c.Box.Height <= 0 {
				t.Errorf("run %d [%d]: box %+v has no area", run, i, c.Box)
			}
			if i > 0 && got[i-1].Confidence < c.Confidence {
				t.Errorf("run %d [%d]: not sorted by confidence", run, i)
			}
			for j := 0; j < i; j++ {
				if r := OverlapRatio(got[j].Box, c.Box); r > cfg.MaxOverlapRatio {
					t.Errorf("run %d: candidates %d and %d overlap %.2f", run, j, i, r)
				}
			}
		}
	}
}

func TestPipelineRun_Stats(t *testing.T) {
	img := createTestImage(100, 100, color.Black)
	fillRect(img, 30, 45, 40, 10, color.White)

	p, err := NewPipeline(DefaultConfig())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	res, err := p.Run(bufferOf(img), 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := res.Stats
	if s.Width != 100 || s.Height != 100 || s.ExpectedCount != 3 {
		t.Errorf("dimensions/expected: got %+v", s)
	}
	if s.Contours != 1 || s.Classified != 1 || s.Resolved != 1 {
		t.Errorf("stage counts: got contours=%d classified=%d resolved=%d", s.Contours, s.Classified, s.Resolved)
	}
	if s.EdgePixels <= 10 {
		t.Errorf("edge pixels: got %d", s.EdgePixels)
	}
	if s.MaxCandidates != 8 {
		t.Errorf("max candidates: got %d, want 8", s.MaxCandidates)
	}
	if p.Name() != "builtin" {
		t.Errorf("name: got %q", p.Name())
	}
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"edge threshold", func(c *Config) { c.EdgeThreshold = 300 }},
		{"area range", func(c *Config) { c.MinAreaFraction = 0.5 }},
		{"aspect range", func(c *Config) { c.MinAspectRatio = 9 }},
		{"overlap", func(c *Config) { c.MaxOverlapRatio = 1.5 }},
		{"truncation", func(c *Config) { c.TruncateFactor = 0.5 }},
		{"fallback box", func(c *Config) { c.FallbackBoxWidth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewPipeline(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPipeline_CustomThreshold(t *testing.T) {
	// A faint bar only shows up once the edge threshold is lowered.
	img := createTestImage(100, 100, color.Black)
	fillRect(img, 30, 45, 40, 10, color.RGBA{6, 6, 6, 255})

	def, _ := NewPipeline(DefaultConfig())
	got, err := def.Detect(bufferOf(img), 1)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("default threshold: expected 0 candidates, got %d", len(got))
	}

	cfg := DefaultConfig()
	cfg.EdgeThreshold = 5
	low, _ := NewPipeline(cfg)
	got, err = low.Detect(bufferOf(img), 1)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("low threshold: expected 1 candidate, got %d", len(got))
	}
}
