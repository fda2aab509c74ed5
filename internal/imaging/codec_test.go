// internal/imaging/codec_test.go - Unit tests for the raster codec
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		mime       string
		wantFormat string
	}{
		{"image/png", "png"},
		{"image/png; mode=8bit", "png"},
		{"image/jpeg", "jpeg"},
		{"image/gif", "gif"},
		{"image/tiff", "tiff"},
		{"image/bmp", "bmp"},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, testImage(), tt.mime); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			img, format, err := Decode(buf.Bytes())
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if format != tt.wantFormat {
				t.Errorf("Decode() format = %q, want %q", format, tt.wantFormat)
			}
			if got := img.Bounds(); got.Dx() != 4 || got.Dy() != 4 {
				t.Errorf("Decode() bounds = %v, want 4x4", got)
			}
		})
	}
}

func TestDecodeRejectsNonImage(t *testing.T) {
	_, _, err := Decode([]byte("<html>503 Service Unavailable</html>"))
	if err == nil {
		t.Fatal("Decode() on HTML = nil error")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Decode() error = %v, want ErrDecode", err)
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), "image/svg+xml"); err == nil {
		t.Error("Encode() with svg = nil error")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "png"},
		{"image/png; mode=8bit", "png"},
		{"image/jpeg", "jpeg"},
		{"IMAGE/TIFF", "tiff"},
		{"png", "png"},
	}

	for _, tt := range tests {
		if got := Extension(tt.mime); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
