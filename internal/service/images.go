package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// decoders for uploads
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	MaxImageBytes = 2 * 1024 * 1024
	maxImageWidth = 400
	// decoded size cap, checked from the header before any pixels are read
	maxImagePixels = 40_000_000
	jpegQuality   = 70
)

var (
	ErrImageTooLarge = errors.New("image exceeds 2MB")
	ErrImageInvalid  = errors.New("failed to process image")
)

// ProcessImage downsizes an upload to at most 400px wide and returns it as a
// JPEG data URL suitable for storing directly in the product row
func ProcessImage(data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageInvalid, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return "", fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrImageInvalid, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageInvalid, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxImageWidth {
		height = height * maxImageWidth / width
		width = maxImageWidth
		if height < 1 {
			height = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageInvalid, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
