package imaging

import (
	"image"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// EdgeMapResult contains the gradient image the contour tracer works on,
// encoded as base64 PNG.
type EdgeMapResult struct {
	// Width and Height of the output image in pixels (same as input).
	Width  int `json:"width"`
	Height int `json:"height"`

	// Threshold that was applied, or 0 when the raw magnitudes are shown.
	Threshold int `json:"threshold"`

	// EdgePixels counts pixels whose magnitude exceeds the detection
	// config's edge threshold.
	EdgePixels int `json:"edge_pixels"`

	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EdgeMap runs the grayscale, smoothing and Sobel stages of the detection
// pipeline on img and renders the magnitudes as an 8-bit gray image.
//
// With binary set, pixels above cfg.EdgeThreshold are drawn white and
// everything else black, which is exactly the mask the contour tracer
// flood-fills. Otherwise raw magnitudes are drawn.
func EdgeMap(img image.Image, cfg detection.Config, binary bool) (*EdgeMapResult, error) {
	gray, count := EdgeImage(img, cfg, binary)

	encoded, err := encodePNG(gray)
	if err != nil {
		return nil, err
	}

	res := &EdgeMapResult{
		Width:       gray.Rect.Dx(),
		Height:      gray.Rect.Dy(),
		EdgePixels:  count,
		ImageBase64: encoded,
		MimeType:    pngMimeType,
	}
	if binary {
		res.Threshold = cfg.EdgeThreshold
	}
	return res, nil
}

// EdgeImage is EdgeMap without the encoding step. It also returns the
// number of pixels above cfg.EdgeThreshold.
func EdgeImage(img image.Image, cfg detection.Config, binary bool) (*image.Gray, int) {
	buf := PixelBufferFrom(img)
	w, h := buf.Width, buf.Height

	edges := detection.Sobel(detection.Smooth(detection.Grayscale(buf), w, h), w, h)

	gray := image.NewGray(image.Rect(0, 0, w, h))
	count := 0
	for i, v := range edges {
		above := int(v) > cfg.EdgeThreshold
		if above {
			count++
		}
		switch {
		case !binary:
			gray.Pix[i] = v
		case above:
			gray.Pix[i] = 255
		}
	}
	return gray, count
}
