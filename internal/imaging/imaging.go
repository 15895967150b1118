// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging converts uploaded images into fixed-size JPEG crops.
// Every upload is scaled to cover the target box and center-cropped, so
// catalog images always share one aspect ratio per kind.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// quality is the JPEG quality for generated crops.
	quality = 85

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000

	// ContentType is the MIME type of every generated image.
	ContentType = "image/jpeg"
)

// Spec names the folder and the box an upload is cropped to.
type Spec struct {
	Folder string
	Width  int
	Height int
}

// Upload kinds.
var (
	GameImage     = Spec{Folder: "games", Width: 1200, Height: 630}
	CategoryImage = Spec{Folder: "categories", Width: 800, Height: 400}
	AvatarImage   = Spec{Folder: "avatars", Width: 250, Height: 250}
)

// ErrUnsupported is returned for data that no registered decoder accepts.
var ErrUnsupported = errors.New("imaging: unsupported image format")

// Fill decodes src, scales it to cover spec's box and center-crops the
// overflow. The result is JPEG encoded.
func Fill(src []byte, spec Spec) ([]byte, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("imaging: invalid target %dx%d", spec.Width, spec.Height)
	}

	// Decode config first to check dimensions without full decode.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupported
		}
		return nil, fmt.Errorf("imaging: decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("imaging: image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, cropRect(img.Bounds(), spec.Width, spec.Height), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// cropRect returns the largest centered region of b with the aspect ratio
// w:h.
func cropRect(b image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()
	// Compare srcW/srcH with w/h without floating point.
	if srcW*h > srcH*w {
		cropW := srcH * w / h
		x0 := b.Min.X + (srcW-cropW)/2
		return image.Rect(x0, b.Min.Y, x0+cropW, b.Max.Y)
	}
	cropH := srcW * h / w
	y0 := b.Min.Y + (srcH-cropH)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+cropH)
}
