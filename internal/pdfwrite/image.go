package pdfwrite

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// ErrImageData indicates the raster data could not be embedded.
var ErrImageData = errors.New("pdfwrite: unusable image data")

// Image XObject parameters.
const (
	ColorRGB  = "DeviceRGB"
	ColorGray = "DeviceGray"

	FilterDCT   = "DCTDecode"
	FilterFlate = "FlateDecode"
)

// Image is an embeddable raster: 8 bits per component, already encoded
// with Filter. SMask holds Flate-compressed 8-bit alpha, if any.
type Image struct {
	Width, Height int
	ColorSpace    string
	Filter        string
	Data          []byte
	SMask         []byte
}

// FromJPEG embeds JPEG bytes unchanged when the viewer can decode them
// directly (grayscale or YCbCr). CMYK JPEGs are decoded and re-encoded as
// RGB samples because their inversion convention differs between writers.
func FromJPEG(data []byte) (*Image, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageData, err)
	}

	switch cfg.ColorModel {
	case color.GrayModel:
		return &Image{Width: cfg.Width, Height: cfg.Height, ColorSpace: ColorGray, Filter: FilterDCT, Data: data}, nil
	case color.YCbCrModel:
		return &Image{Width: cfg.Width, Height: cfg.Height, ColorSpace: ColorRGB, Filter: FilterDCT, Data: data}, nil
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageData, err)
	}
	return FromImage(img)
}

// FromImage converts any decoded image to Flate-compressed RGB samples.
// An SMask is attached only when at least one pixel is not fully opaque.
func FromImage(img image.Image) (*Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrImageData, b)
	}

	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			rgb = append(rgb, c.R, c.G, c.B)
			alpha = append(alpha, c.A)
			if c.A != 0xff {
				opaque = false
			}
		}
	}

	data, err := deflate(rgb)
	if err != nil {
		return nil, err
	}
	out := &Image{Width: w, Height: h, ColorSpace: ColorRGB, Filter: FilterFlate, Data: data}
	if !opaque {
		if out.SMask, err = deflate(alpha); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("%w: compressing samples: %v", ErrImageData, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalizing compression: %v", ErrImageData, err)
	}
	return buf.Bytes(), nil
}
