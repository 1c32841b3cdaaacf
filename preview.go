package pdftoolkit

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	lru "github.com/hashicorp/golang-lru/v2"
	xdraw "golang.org/x/image/draw"
)

// Thumbnail defaults.
const (
	DefaultThumbnailCacheSize = 64
	DefaultThumbnailEdge      = 200
	MaxThumbnailEdge          = 2000
)

type thumbKey struct {
	doc  HandleID
	page int
	edge int
}

// ThumbnailCache renders small page previews and keeps the most recently
// used ones. It is safe for concurrent use.
type ThumbnailCache struct {
	rasterizer Rasterizer
	cache      *lru.Cache[thumbKey, image.Image]
}

// NewThumbnailCache creates a cache holding up to size previews.
func NewThumbnailCache(r Rasterizer, size int) (*ThumbnailCache, error) {
	if size <= 0 {
		size = DefaultThumbnailCacheSize
	}
	cache, err := lru.New[thumbKey, image.Image](size)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	return &ThumbnailCache{rasterizer: r, cache: cache}, nil
}

// Thumbnail returns the 0-based page of doc scaled so its longer edge is
// maxEdge pixels, on a white background.
func (c *ThumbnailCache) Thumbnail(ctx context.Context, doc *PDFHandle, page, maxEdge int) (image.Image, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultThumbnailEdge
	}
	maxEdge = min(maxEdge, MaxThumbnailEdge)

	size, err := doc.PageSize(page)
	if err != nil {
		return nil, err
	}
	key := thumbKey{doc: doc.ID(), page: page, edge: maxEdge}
	if img, ok := c.cache.Get(key); ok {
		return img, nil
	}
	if c.rasterizer == nil {
		return nil, ErrRasterizerUnavailable
	}

	scale := float64(maxEdge) / max(size.Width, size.Height)
	renderer, err := c.rasterizer.Open(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer renderer.Close()

	rendered, err := renderer.RenderPage(ctx, page+1, scale)
	if err != nil {
		return nil, err
	}
	thumb := fitThumbnail(rendered, thumbnailSize(size, maxEdge))
	c.cache.Add(key, thumb)
	return thumb, nil
}

// Len returns the number of cached previews.
func (c *ThumbnailCache) Len() int { return c.cache.Len() }

// Purge drops every cached preview.
func (c *ThumbnailCache) Purge() { c.cache.Purge() }

// thumbnailSize keeps the page's aspect ratio with its longer edge at edge.
func thumbnailSize(s Size, edge int) image.Point {
	if s.Width >= s.Height {
		return image.Pt(edge, max(1, int(float64(edge)*s.Height/s.Width)))
	}
	return image.Pt(max(1, int(float64(edge)*s.Width/s.Height)), edge)
}

func fitThumbnail(src image.Image, size image.Point) image.Image {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return buf.Bytes(), nil
}
