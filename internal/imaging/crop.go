package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// CropResult contains the cropped image data
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// MeanColor is the average color inside the unpadded region, "#rrggbb".
	MeanColor string `json:"mean_color"`
}

// CropCandidate extracts a candidate's bounding box with padding pixels
// of context on every side. The padded region is clipped to the image;
// a box entirely outside the image is an error.
//
// Box coordinates are inclusive (a box of Width w covers w+1 columns),
// matching how the contour tracer reports extents.
func CropCandidate(img image.Image, box detection.BoundingBox, padding int, scale float64) (*CropResult, error) {
	if padding < 0 {
		padding = 0
	}
	bounds := img.Bounds()
	inner := BoxRect(box).Intersect(bounds)
	if inner.Empty() {
		return nil, fmt.Errorf("box %+v lies outside image bounds %v", box, bounds)
	}
	outer := inner.Inset(-padding).Intersect(bounds)
	return cropRect(img, outer, inner, scale)
}

// BoxRect converts an inclusive bounding box to an image rectangle.
func BoxRect(box detection.BoundingBox) image.Rectangle {
	return image.Rect(box.X, box.Y, box.X+box.Width+1, box.Y+box.Height+1)
}

func cropRect(img image.Image, rect, sample image.Rectangle, scale float64) (*CropResult, error) {
	cropped := imaging.Crop(img, rect)
	mean := meanColor(imaging.Crop(img, sample))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := encodePNG(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		X:           rect.Min.X,
		Y:           rect.Min.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    pngMimeType,
		MeanColor:   mean.Hex(),
	}, nil
}

// meanColor averages the RGB channels of img, ignoring alpha.
func meanColor(img *image.NRGBA) colorful.Color {
	var r, g, b, n float64
	for i := 0; i+3 < len(img.Pix); i += 4 {
		r += float64(img.Pix[i])
		g += float64(img.Pix[i+1])
		b += float64(img.Pix[i+2])
		n++
	}
	if n == 0 {
		return colorful.Color{}
	}
	return colorful.Color{R: r / n / 255, G: g / n / 255, B: b / n / 255}
}
