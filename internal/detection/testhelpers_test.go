package detection

import (
	"image"
	"image/color"
	"math"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints a solid rectangle of w×h pixels with its top-left at (x, y)
func fillRect(img *image.RGBA, x, y, w, h int, c color.Color) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			img.Set(px, py, c)
		}
	}
}

// bufferOf wraps an opaque RGBA image as a PixelBuffer
func bufferOf(img *image.RGBA) PixelBuffer {
	b := img.Bounds()
	return PixelBuffer{Width: b.Dx(), Height: b.Dy(), Pix: img.Pix}
}

// drumImage draws n bright bars evenly spaced on a circle over a dark
// background, roughly what a slit drum photo reduces to.
func drumImage(size, n, barW, barH int) *image.RGBA {
	img := createTestImage(size, size, color.RGBA{30, 30, 30, 255})
	c := float64(size) / 2
	r := float64(size) * 0.3
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		cx := int(c + r*math.Cos(a))
		cy := int(c + r*math.Sin(a))
		fillRect(img, cx-barW/2, cy-barH/2, barW, barH, color.RGBA{220, 210, 190, 255})
	}
	return img
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// angleClose compares two angles modulo 2π
func angleClose(a, b float64) bool {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	return math.Min(d, 2*math.Pi-d) < 1e-9
}
