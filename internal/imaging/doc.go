// Package imaging connects the detection core to real photographs.
//
// On the way in it decodes drum photos from disk (PNG, JPEG, GIF, BMP,
// TIFF, WebP), applies EXIF orientation, downscales oversized phone
// shots and exposes the result as a detection.PixelBuffer. On the way out
// it renders what detection found: candidate overlays, single-tongue
// crops and the edge map the contour tracer works from. Rendered images
// are returned as base64 PNG for MCP image content.
//
// # Coordinate System
//
// All coordinates refer to the working image held by a Photo, after
// orientation and downscale, with (0,0) at the top-left corner. Candidate
// boxes are inclusive on both ends; BoxRect converts them to the
// half-open image.Rectangle convention used by the image packages.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached photos are shared and must
// be treated as read-only; every rendering function draws on a copy.
package imaging
