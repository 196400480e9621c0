package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/verdantlab/leafscan/internal/core/domain"
)

const (
	DefaultMaxDimension = 1280
	DefaultJPEGQuality  = 85
)

// Compressor bounds a raw capture to a maximum longest side and re-encodes it
// as JPEG. Anything the decoder cannot make sense of is reported as an error;
// the compressor never panics on hostile input.
type Compressor struct {
	maxDimension int
	quality      int
}

func NewCompressor(maxDimension, quality int) *Compressor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Compressor{maxDimension: maxDimension, quality: quality}
}

func (c *Compressor) Compress(_ context.Context, raw []byte) (domain.ImageBlob, error) {
	img, err := decode(raw)
	if err != nil {
		return domain.ImageBlob{}, fmt.Errorf("decode capture: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return domain.ImageBlob{}, fmt.Errorf("decode capture: empty image")
	}

	longest := width
	if height > longest {
		longest = height
	}
	if longest > c.maxDimension {
		scale := float64(c.maxDimension) / float64(longest)
		newW := max(int(float64(width)*scale+0.5), 1)
		newH := max(int(float64(height)*scale+0.5), 1)
		img = scaleDown(img, newW, newH)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: c.quality}); err != nil {
		return domain.ImageBlob{}, fmt.Errorf("encode capture: %w", err)
	}
	return domain.ImageBlob{MimeType: "image/jpeg", Data: out.Bytes()}, nil
}

// decode tries the registered decoders first and falls back on a strict
// magic-byte dispatch for streams with misleading headers.
func decode(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err == nil {
		return img, nil
	}
	if isJPEG(raw) {
		if strict, strictErr := jpeg.Decode(bytes.NewReader(raw)); strictErr == nil {
			return strict, nil
		}
	}
	if isPNG(raw) {
		if strict, strictErr := png.Decode(bytes.NewReader(raw)); strictErr == nil {
			return strict, nil
		}
	}
	return nil, err
}

func isJPEG(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8
}

func isPNG(b []byte) bool {
	return len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A
}

func scaleDown(src image.Image, newW, newH int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	sb := src.Bounds()
	srcW := sb.Dx()
	srcH := sb.Dy()
	for y := 0; y < newH; y++ {
		sy := sb.Min.Y + (y*srcH)/newH
		for x := 0; x < newW; x++ {
			sx := sb.Min.X + (x*srcW)/newW
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
