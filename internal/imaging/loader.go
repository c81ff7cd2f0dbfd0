package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// Photo is a decoded drum photograph ready for detection.
//
// Image is always an *image.NRGBA with its origin at (0,0), already
// rotated according to any EXIF orientation tag and downscaled to the
// cache's maximum dimension. All candidate coordinates refer to Image,
// not to the file on disk; Scale converts between the two.
type Photo struct {
	Path  string
	Image *image.NRGBA

	// OriginalWidth and OriginalHeight are the oriented dimensions before
	// any downscale.
	OriginalWidth  int
	OriginalHeight int

	// Scale is Image width / OriginalWidth (1 when not downscaled).
	Scale float64
}

// Width of the working image.
func (p *Photo) Width() int { return p.Image.Bounds().Dx() }

// Height of the working image.
func (p *Photo) Height() int { return p.Image.Bounds().Dy() }

// PixelBuffer exposes the working image as the RGBA byte layout the
// detection pipeline consumes. The buffer aliases Image.Pix and must not
// be modified.
func (p *Photo) PixelBuffer() detection.PixelBuffer {
	return PixelBufferFrom(p.Image)
}

// PixelBufferFrom converts any image to a tightly packed RGBA buffer with
// its origin at (0,0). *image.NRGBA values that already have that layout
// are used without copying.
func PixelBufferFrom(img image.Image) detection.PixelBuffer {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != 4*nrgba.Rect.Dx() {
		nrgba = imaging.Clone(img)
	}
	return detection.PixelBuffer{
		Width:  nrgba.Rect.Dx(),
		Height: nrgba.Rect.Dy(),
		Pix:    nrgba.Pix,
	}
}

// ImageCache provides thread-safe caching of decoded photos to avoid
// redundant disk reads and repeated downscaling.
//
// Photos are keyed by the exact path string. They stay cached until
// Evict or Clear is called.
type ImageCache struct {
	mu           sync.RWMutex
	maxDimension int
	photos       map[string]*Photo
}

// NewImageCache creates an empty cache. Photos whose longer side exceeds
// maxDimension are downscaled on load; 0 keeps full resolution.
func NewImageCache(maxDimension int) *ImageCache {
	if maxDimension < 0 {
		maxDimension = 0
	}
	return &ImageCache{
		maxDimension: maxDimension,
		photos:       make(map[string]*Photo),
	}
}

// MaxDimension is the downscale limit in pixels (0 = none).
func (c *ImageCache) MaxDimension() int {
	return c.maxDimension
}

// Load returns the cached photo for path, decoding it on first use.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG EXIF
// orientation is applied so phone photos come out upright.
func (c *ImageCache) Load(path string) (*Photo, error) {
	c.mu.RLock()
	if p, ok := c.photos[path]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	b := img.Bounds()
	p := &Photo{
		Path:           path,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		Scale:          1,
	}
	if c.maxDimension > 0 && (b.Dx() > c.maxDimension || b.Dy() > c.maxDimension) {
		p.Image = imaging.Fit(img, c.maxDimension, c.maxDimension, imaging.Lanczos)
		p.Scale = float64(p.Image.Bounds().Dx()) / float64(b.Dx())
	} else {
		p.Image = imaging.Clone(img)
	}

	c.mu.Lock()
	c.photos[path] = p
	c.mu.Unlock()

	return p, nil
}

// Clear removes all photos from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.photos = make(map[string]*Photo)
	c.mu.Unlock()
}

// Evict removes one photo. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.photos, path)
	c.mu.Unlock()
}

// Len is the number of cached photos.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.photos)
}

// ImageInfo describes a loaded photo.
type ImageInfo struct {
	// Width and Height of the working image that detection sees.
	Width  int `json:"width"`
	Height int `json:"height"`

	// OriginalWidth and OriginalHeight after EXIF orientation, before
	// downscaling.
	OriginalWidth  int     `json:"original_width"`
	OriginalHeight int     `json:"original_height"`
	Scale          float64 `json:"scale"`

	// MaxDimension is the cache's downscale limit (0 = none).
	MaxDimension int `json:"max_dimension"`

	// Format is derived from the file extension: "jpeg", "png", "gif",
	// "bmp", "tiff", "webp" or "unknown".
	Format string `json:"format"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its dimensions,
// format and size on disk.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	p, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:          p.Width(),
		Height:         p.Height(),
		OriginalWidth:  p.OriginalWidth,
		OriginalHeight: p.OriginalHeight,
		Scale:          p.Scale,
		MaxDimension:   cache.MaxDimension(),
		Format:         formatOf(path),
		FileSizeBytes:  stat.Size(),
	}, nil
}

func formatOf(path string) string {
	if f, err := imaging.FormatFromFilename(path); err == nil {
		return strings.ToLower(f.String())
	}
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return "webp"
	}
	return "unknown"
}
