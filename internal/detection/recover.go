package detection

import "fmt"

// Outcome is what DetectOrFallback hands back to a caller.
type Outcome struct {
	// Candidates is never empty when ExpectedCount >= 1: either the
	// backend's candidates or the fallback arrangement.
	Candidates []Candidate

	// Backend names the backend that ran.
	Backend string

	// UsedFallback is set when Candidates came from Config.Fallback.
	UsedFallback bool

	// BackendErr holds the failure that triggered the fallback, if any.
	// It is informational: the call itself succeeded.
	BackendErr error
}

// DetectOrFallback runs backend and substitutes the fallback arrangement
// when it fails or finds nothing.
//
// Input shape errors are returned before the backend runs. Every backend
// error, and any panic inside the backend, is treated as an empty result
// and recorded in Outcome.BackendErr.
func DetectOrFallback(backend Backend, cfg Config, buf PixelBuffer, expectedCount int) (*Outcome, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if expectedCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrExpectedCount, expectedCount)
	}

	out := &Outcome{Backend: backend.Name()}
	candidates, err := safeDetect(backend, buf, expectedCount)
	if err != nil {
		out.BackendErr = err
		candidates = nil
	}

	if len(candidates) == 0 {
		out.Candidates = cfg.Fallback(buf.Width, buf.Height, expectedCount)
		out.UsedFallback = true
		return out, nil
	}
	out.Candidates = candidates
	return out, nil
}

// safeDetect converts a backend panic into an error.
func safeDetect(backend Backend, buf PixelBuffer, expectedCount int) (cands []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands = nil
			err = fmt.Errorf("backend %s panicked: %v", backend.Name(), r)
		}
	}()
	return backend.Detect(buf, expectedCount)
}
