// Package detection locates candidate tongue regions on a photograph of a
// slit drum.
//
// The built-in pipeline is a fixed sequence of pure stages:
//
//  1. Grayscale: RGBA -> luminance with ITU-R BT.601 weights
//  2. Smooth: 3x3 binomial (Gaussian) blur of interior pixels
//  3. Sobel: gradient magnitude sqrt(Gx² + Gy²), clamped to 255
//  4. TraceContours: 8-connected flood fill over pixels above the edge
//     threshold, one contour per blob
//  5. Classify: bounding box geometry filters and a confidence score
//  6. Resolve: confidence sort, greedy overlap suppression, truncation to
//     a count derived from the expected tongue count
//
// Every threshold lives in Config; DefaultConfig holds the reference
// values. Stages ignore a one pixel image border, which stays zero in the
// smoothed and edge maps.
//
// # Coordinate System
//
// Origin (0, 0) is the top-left pixel, X grows rightward and Y downward.
// A BoundingBox's Width and Height are max - min of the enclosed points.
//
// # Confidence Scores
//
// Confidence is a heuristic in [0, 1]:
//   - 0.5 for any box that passes the filters
//   - +0.3 when width/height is between 2 and 4 (tongue shaped)
//   - +0.2 when the area is between 1000 and 50000 px²
//   - 0.1 for fallback placeholders
//
// # Failure Semantics
//
// Only the entry points validate input; they return ErrInputShape for a
// buffer whose length is not width×height×4 or whose dimensions are not
// positive. Filtering is silent. An empty result is not an error: callers
// decide whether to use Fallback, or let DetectOrFallback do it.
//
// # Concurrency
//
// Runs are synchronous and own all intermediate buffers, so independent
// runs may execute concurrently without locking.
package detection
