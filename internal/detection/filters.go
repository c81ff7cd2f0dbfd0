package detection

import "math"

// LuminanceMap is a width×height single-channel image, row-major.
type LuminanceMap []uint8

// EdgeMap holds gradient magnitudes clamped to 0-255, row-major.
type EdgeMap []uint8

var (
	// 3x3 binomial approximation of a Gaussian; weights sum to 16.
	smoothKernel = [9]int{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}
	sobelX = [9]int{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	sobelY = [9]int{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
)

// Grayscale reduces an RGBA buffer to luminance using ITU-R BT.601
// weights: round(0.299*R + 0.587*G + 0.114*B). Alpha is ignored.
func Grayscale(buf PixelBuffer) LuminanceMap {
	n := buf.Width * buf.Height
	lum := make(LuminanceMap, n)
	for i := 0; i < n; i++ {
		r, g, b := buf.Pix[i*4], buf.Pix[i*4+1], buf.Pix[i*4+2]
		y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
		lum[i] = toByte(y)
	}
	return lum
}

// Smooth applies the 3x3 Gaussian kernel to every interior pixel.
// The one pixel border stays at zero.
func Smooth(lum LuminanceMap, width, height int) LuminanceMap {
	out := make(LuminanceMap, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			out[y*width+x] = toByte(float64(convolve3(lum, width, x, y, &smoothKernel)) / 16)
		}
	}
	return out
}

// Sobel computes the gradient magnitude sqrt(Gx² + Gy²) of every interior
// pixel, clamped to 255. The one pixel border stays at zero.
func Sobel(lum LuminanceMap, width, height int) EdgeMap {
	out := make(EdgeMap, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := float64(convolve3(lum, width, x, y, &sobelX))
			gy := float64(convolve3(lum, width, x, y, &sobelY))
			out[y*width+x] = toByte(math.Sqrt(gx*gx + gy*gy))
		}
	}
	return out
}

// convolve3 sums the 3x3 neighborhood of (x, y) weighted by k.
// The caller guarantees (x, y) is an interior pixel.
func convolve3(src []uint8, width, x, y int, k *[9]int) int {
	sum := 0
	i := 0
	for ky := -1; ky <= 1; ky++ {
		row := (y + ky) * width
		for kx := -1; kx <= 1; kx++ {
			sum += int(src[row+x+kx]) * k[i]
			i++
		}
	}
	return sum
}

// toByte rounds v to the nearest integer and clamps it to 0-255.
func toByte(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
