package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	defaultMaxDimension = 2000

	// Same bound as Pillow's decompression bomb check.
	maxImagePixels = 89_478_485
)

var ErrImageTooLarge = errors.New("image too large")

// Preprocess decodes a PNG or JPEG, converts it to grayscale and shrinks it
// so its longest side is at most maxDimension. The result is PNG-encoded.
func Preprocess(raw []byte, maxDimension int) ([]byte, error) {
	if maxDimension <= 0 {
		maxDimension = defaultMaxDimension
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image: %dx%d", w, h)
	}

	dstW, dstH := scaledSize(w, h, maxDimension)

	gray := image.NewGray(image.Rect(0, 0, dstW, dstH))
	if dstW == w && dstH == h {
		draw.Draw(gray, gray.Bounds(), src, bounds.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), src, bounds, draw.Src, nil)
	}

	var out bytes.Buffer
	if err = png.Encode(&out, gray); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return out.Bytes(), nil
}

func scaledSize(w, h, maxDimension int) (int, int) {
	longest := max(w, h)
	if longest <= maxDimension {
		return w, h
	}

	scale := float64(maxDimension) / float64(longest)

	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}
