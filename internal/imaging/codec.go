// internal/imaging/codec.go - Raster codec and MIME handling
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // decode-only

	"github.com/pawelpiwowarski/wms-scraper/internal"
)

// ErrDecode reports a response body that is not a decodable raster image,
// typically an HTML error page served with an image content type.
var ErrDecode = internal.NewError(internal.ErrorCodeDecode,
	"response is not a decodable image", nil)

const jpegQuality = 90

// Decode parses raw image bytes and reports the detected format name. The
// payload is treated as opaque up to decodability; no pixel inspection.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// Encode writes img in the format named by the MIME type
func Encode(w io.Writer, img image.Image, mime string) error {
	switch Extension(mime) {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		return gif.Encode(w, img, nil)
	case "tiff", "tif":
		return tiff.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return internal.NewError(internal.ErrorCodeValidation,
			fmt.Sprintf("unsupported image format %q", mime), nil)
	}
}

// Extension derives a filename extension from an image MIME type, dropping
// any parameter suffix: "image/png; mode=8bit" becomes "png".
func Extension(mime string) string {
	ext := mime
	if i := strings.LastIndex(ext, "/"); i >= 0 {
		ext = ext[i+1:]
	}
	if i := strings.Index(ext, ";"); i >= 0 {
		ext = ext[:i]
	}
	return strings.ToLower(strings.TrimSpace(ext))
}
