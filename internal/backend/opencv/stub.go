//go:build !opencv

package opencv

import (
	"fmt"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// Available reports whether this binary was built with OpenCV support.
const Available = false

// Backend is a placeholder in builds without OpenCV.
type Backend struct{}

// New always fails: this binary was built without the opencv tag.
func New(cfg detection.Config, opts Options) (*Backend, error) {
	return nil, fmt.Errorf("%w: %s (rebuild with -tags opencv)", detection.ErrBackendUnavailable, Name)
}

// Name implements detection.Backend.
func (b *Backend) Name() string { return Name }

// Detect implements detection.Backend.
func (b *Backend) Detect(buf detection.PixelBuffer, expectedCount int) ([]detection.Candidate, error) {
	return nil, fmt.Errorf("%w: %s", detection.ErrBackendUnavailable, Name)
}
