// Package opencv is an alternative tongue detector built on OpenCV via
// gocv: Gaussian blur, Canny edges and external contours replace the
// built-in Sobel and flood-fill stages. Boxes are still scored and
// resolved with detection.Config, so both backends share one set of
// thresholds and one output contract.
//
// The OpenCV implementation is compiled only with the "opencv" build tag,
// because gocv needs the native OpenCV libraries:
//
//	go build -tags opencv ./cmd/slitdrum-mcp
//
// Without the tag New reports detection.ErrBackendUnavailable.
package opencv

// Name identifies this backend in logs and tool output.
const Name = "opencv"

// Options tunes the OpenCV stages. Scoring and resolution use the
// detection.Config passed to New.
type Options struct {
	// BlurSize is the Gaussian kernel size; it must be odd.
	BlurSize int

	// CannyLow and CannyHigh are the hysteresis thresholds.
	CannyLow  float32
	CannyHigh float32
}

// DefaultOptions returns blur and Canny settings that behave close to the
// built-in Sobel threshold on drum photos.
func DefaultOptions() Options {
	return Options{BlurSize: 3, CannyLow: 30, CannyHigh: 90}
}
