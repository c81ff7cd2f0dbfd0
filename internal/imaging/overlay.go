package imaging

import (
	"image"
	"image/color"
	"strconv"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// Overlay colors. Fallback boxes are drawn in one fixed amber so they are
// never mistaken for detections.
const (
	fallbackHex = "#ffb000"
	labelFgHex  = "#ffffff"
	labelBgHex  = "#000000"
)

// OverlayOptions controls how candidates are drawn.
type OverlayOptions struct {
	// Selected lists candidate indices in selection order. Each selected
	// box is drawn thicker and labelled with its 1-based position.
	Selected []int

	// Desaturate mutes the photo beneath the boxes, -1 (gray) to 0 (off).
	Desaturate float64

	// Thickness of unselected box outlines in pixels. Selected outlines
	// are one pixel thicker.
	Thickness int
}

// DefaultOverlayOptions returns the settings used by the overlay tool.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{Desaturate: -0.6, Thickness: 2}
}

// OverlayResult contains the photo with candidate boxes drawn on it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Candidates  int    `json:"candidates"`
	Selected    int    `json:"selected"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay draws candidates over img and returns the result as base64 PNG.
func Overlay(img image.Image, candidates []detection.Candidate, opts OverlayOptions) (*OverlayResult, error) {
	canvas := RenderOverlay(img, candidates, opts)

	encoded, err := encodePNG(canvas)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		Width:       canvas.Rect.Dx(),
		Height:      canvas.Rect.Dy(),
		Candidates:  len(candidates),
		Selected:    len(opts.Selected),
		ImageBase64: encoded,
		MimeType:    pngMimeType,
	}, nil
}

// RenderOverlay draws candidates over a muted copy of img. Each detected
// candidate gets its own hue; fallback placeholders are amber.
func RenderOverlay(img image.Image, candidates []detection.Candidate, opts OverlayOptions) *image.RGBA {
	var canvas *image.RGBA
	if opts.Desaturate < 0 {
		canvas = adjust.Saturation(img, opts.Desaturate)
	} else {
		canvas = clone.AsRGBA(img)
	}
	if opts.Thickness < 1 {
		opts.Thickness = 1
	}

	order := make(map[int]int, len(opts.Selected))
	for pos, idx := range opts.Selected {
		order[idx] = pos + 1
	}

	palette := Palette(len(candidates))
	fallback := mustHex(fallbackHex)
	fg := mustHex(labelFgHex)
	bg := mustHex(labelBgHex)
	bg.A = 180

	for i, c := range candidates {
		col := palette[i]
		if c.IsFallback {
			col = fallback
		}
		thickness := opts.Thickness
		pos, selected := order[i]
		if selected {
			thickness++
		}
		drawRect(canvas, BoxRect(c.Box).Add(canvas.Rect.Min), thickness, col)
		if selected {
			drawLabel(canvas, canvas.Rect.Min.X+c.Box.X+thickness+1, canvas.Rect.Min.Y+c.Box.Y+thickness+1, strconv.Itoa(pos), fg, bg)
		}
	}
	return canvas
}

// Palette returns n opaque colors with evenly spaced hues.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		h := 360 * float64(i) / float64(n)
		r, g, b := colorful.Hsv(h, 0.85, 1.0).RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// mustHex parses one of the package's constant colors.
func mustHex(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawRect outlines r with lines thickness pixels wide drawn inward.
func drawRect(img *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	for t := 0; t < thickness; t++ {
		x0, y0 := r.Min.X+t, r.Min.Y+t
		x1, y1 := r.Max.X-1-t, r.Max.Y-1-t
		if x0 > x1 || y0 > y1 {
			return
		}
		for x := x0; x <= x1; x++ {
			setClipped(img, x, y0, c)
			setClipped(img, x, y1, c)
		}
		for y := y0; y <= y1; y++ {
			setClipped(img, x0, y, c)
			setClipped(img, x1, y, c)
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Rect) {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font. Only digits are drawn; other runes leave a gap.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
