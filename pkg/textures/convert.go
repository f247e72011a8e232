package textures

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

// Target formats accepted by Convert.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

var (
	// ErrUnsupportedTexture is returned for source files no decoder handles (e.g. DDS).
	ErrUnsupportedTexture = errors.New("unsupported texture format")
	// ErrUnknownTarget is returned for a target format other than png or webp.
	ErrUnknownTarget = errors.New("unknown texture target format")
)

// decoders are selected by extension rather than sniffed, since TGA has no magic.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
}

// ValidTarget reports whether format is an accepted conversion target.
func ValidTarget(format string) bool {
	return format == FormatPNG || format == FormatWebP
}

// Decode reads an image, choosing the decoder from name's extension.
func Decode(r io.Reader, name string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(name))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTexture, ext)
	}
	img, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}

// Encode writes img in the target format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTarget, format)
	}
}

// Convert decodes the texture at src and writes it into dstDir with the
// same base name and the target extension. It returns the written path.
func Convert(src, dstDir, format string) (string, error) {
	if !ValidTarget(format) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTarget, format)
	}

	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, err := Decode(f, src)
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(dstDir, base+"."+format)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if err := Encode(out, img, format); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("encoding %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}
