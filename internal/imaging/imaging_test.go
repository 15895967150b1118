package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFill_OutputSize(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		spec       Spec
	}{
		{name: "wide source to game", srcW: 400, srcH: 100, spec: GameImage},
		{name: "tall source to game", srcW: 100, srcH: 400, spec: GameImage},
		{name: "square to category", srcW: 300, srcH: 300, spec: CategoryImage},
		{name: "upscale avatar", srcW: 40, srcH: 60, spec: AvatarImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Fill(encodePNG(t, tt.srcW, tt.srcH), tt.spec)
			if err != nil {
				t.Fatalf("Fill: %v", err)
			}
			img, err := jpeg.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a JPEG: %v", err)
			}
			if got := img.Bounds().Size(); got.X != tt.spec.Width || got.Y != tt.spec.Height {
				t.Errorf("size = %v, want %dx%d", got, tt.spec.Width, tt.spec.Height)
			}
		})
	}
}

func TestFill_Unsupported(t *testing.T) {
	_, err := Fill([]byte("definitely not an image"), AvatarImage)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestFill_InvalidSpec(t *testing.T) {
	if _, err := Fill(encodePNG(t, 10, 10), Spec{Folder: "x"}); err == nil {
		t.Error("expected error for zero-sized spec")
	}
}

func TestCropRect(t *testing.T) {
	tests := []struct {
		name string
		src  image.Rectangle
		w, h int
		want image.Rectangle
	}{
		{name: "wider than target", src: image.Rect(0, 0, 400, 100), w: 2, h: 1, want: image.Rect(100, 0, 300, 100)},
		{name: "taller than target", src: image.Rect(0, 0, 100, 400), w: 1, h: 1, want: image.Rect(0, 150, 100, 250)},
		{name: "same ratio", src: image.Rect(0, 0, 200, 100), w: 2, h: 1, want: image.Rect(0, 0, 200, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cropRect(tt.src, tt.w, tt.h); got != tt.want {
				t.Errorf("cropRect = %v, want %v", got, tt.want)
			}
		})
	}
}
