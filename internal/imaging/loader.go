package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp" // Register WebP format decoder
)

const (
	// DefaultMaxSourceBytes is the largest encoded source accepted (4 MiB).
	DefaultMaxSourceBytes int64 = 4 * 1024 * 1024

	// DefaultFetchTimeout bounds a remote fetch.
	DefaultFetchTimeout = 10 * time.Second

	userAgent = "sprite-avatar-mcp"
)

// LoaderOptions configures an ImageCache.
type LoaderOptions struct {
	// MaxBytes caps the encoded source size. Zero selects DefaultMaxSourceBytes.
	MaxBytes int64

	// Timeout bounds HTTP fetches. Zero selects DefaultFetchTimeout.
	Timeout time.Duration
}

type cachedImage struct {
	bitmap Bitmap
	format string
	size   int64
}

// ImageCache resolves source locators into decoded bitmaps and keeps them in
// memory so that re-running later stages with other parameters never
// re-fetches the source.
//
// A locator is either a local file path or an http(s) URL. Cached bitmaps
// are handed out as-is; every pipeline stage copies before writing.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage

	maxBytes int64
	client   *http.Client
}

// NewImageCache creates an empty cache.
func NewImageCache(opts LoaderOptions) *ImageCache {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxSourceBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	return &ImageCache{
		images:   make(map[string]cachedImage),
		maxBytes: opts.MaxBytes,
		client:   &http.Client{Timeout: opts.Timeout},
	}
}

// Load returns the bitmap for source, reading and decoding it on first use.
//
// # Errors
//
//   - ErrInvalidBitmap if the source exceeds the size limit or cannot be decoded
//   - a wrapped I/O or HTTP error if the source cannot be read
func (c *ImageCache) Load(ctx context.Context, source string) (Bitmap, error) {
	entry, err := c.load(ctx, source)
	if err != nil {
		return Bitmap{}, err
	}
	return entry.bitmap, nil
}

// LoadBytes decodes an in-memory blob without caching it.
func (c *ImageCache) LoadBytes(data []byte) (Bitmap, error) {
	b, _, err := decode(data, c.maxBytes)
	return b, err
}

func (c *ImageCache) load(ctx context.Context, source string) (cachedImage, error) {
	c.mu.RLock()
	if entry, ok := c.images[source]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	if source == "" {
		return cachedImage{}, fmt.Errorf("image source cannot be empty")
	}

	var (
		data []byte
		err  error
	)
	if isRemote(source) {
		data, err = c.fetch(ctx, source)
	} else {
		data, err = c.readFile(source)
	}
	if err != nil {
		return cachedImage{}, err
	}

	b, format, err := decode(data, c.maxBytes)
	if err != nil {
		return cachedImage{}, err
	}

	entry := cachedImage{bitmap: b, format: format, size: int64(len(data))}
	c.mu.Lock()
	c.images[source] = entry
	c.mu.Unlock()

	return entry, nil
}

func (c *ImageCache) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if info.Size() > c.maxBytes {
		return nil, tooLarge(info.Size(), c.maxBytes)
	}

	data, err := os.ReadFile(path) // #nosec G304 - caller-selected source image
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return data, nil
}

func (c *ImageCache) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// decode enforces the size limit, then decodes data into a Bitmap.
func decode(data []byte, maxBytes int64) (Bitmap, string, error) {
	if int64(len(data)) > maxBytes {
		return Bitmap{}, "", tooLarge(int64(len(data)), maxBytes)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Bitmap{}, "", fmt.Errorf("%w: failed to decode image: %v", ErrInvalidBitmap, err)
	}
	return FromImage(img), format, nil
}

func tooLarge(size, limit int64) error {
	return fmt.Errorf("%w: source is %d bytes, limit is %d", ErrInvalidBitmap, size, limit)
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Evict removes one source from the cache. Unknown sources are ignored.
func (c *ImageCache) Evict(source string) {
	c.mu.Lock()
	delete(c.images, source)
	c.mu.Unlock()
}

// ImageInfo describes a loaded source image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that read the image: "png", "jpeg", "gif" or "webp".
	Format string `json:"format"`

	// SizeBytes is the encoded size of the source.
	SizeBytes int64 `json:"size_bytes"`

	// FrameWidth and FrameHeight are the unscaled cell size on the avatar grid.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	// SuggestedBackground is the removal mode that matches most of the border.
	SuggestedBackground BackgroundMode `json:"suggested_background"`

	// Palette lists the dominant colours of the sheet.
	Palette []PaletteColor `json:"palette,omitempty"`
}

// infoPaletteSize is how many dominant colours Info reports.
const infoPaletteSize = 5

// Info loads source and describes it.
func (c *ImageCache) Info(ctx context.Context, source string) (*ImageInfo, error) {
	entry, err := c.load(ctx, source)
	if err != nil {
		return nil, err
	}
	return entry.info(), nil
}

// InfoBytes decodes an in-memory blob and describes it.
func (c *ImageCache) InfoBytes(data []byte) (*ImageInfo, error) {
	b, format, err := decode(data, c.maxBytes)
	if err != nil {
		return nil, err
	}
	return cachedImage{bitmap: b, format: format, size: int64(len(data))}.info(), nil
}

func (e cachedImage) info() *ImageInfo {
	fw, fh := AvatarGrid.FrameSize(e.bitmap.Width, e.bitmap.Height)
	return &ImageInfo{
		Width:       e.bitmap.Width,
		Height:      e.bitmap.Height,
		Format:      e.format,
		SizeBytes:   e.size,
		FrameWidth:  fw,
		FrameHeight: fh,

		SuggestedBackground: SuggestBackground(e.bitmap),
		Palette:             DominantColors(e.bitmap, infoPaletteSize),
	}
}
