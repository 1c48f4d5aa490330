// Package imgio handles tile I/O: path-safe decode of arbitrary-Unicode
// tile files, PNG/WebP encoding of stitcher output, and the bounded LRU caches
// used by the matcher and compositor.
//
// Decode always buffers the full file into memory first and decodes from
// the byte slice rather than opening by path a second time, which keeps
// behavior identical across platforms that disagree on filesystem path
// encoding (mirrors the original tool's imread_safe/imwrite_safe wrappers
// in the Python it was distilled from).
package imgio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
	"golang.org/x/text/unicode/norm"

	"github.com/kelseym/tilestitch/internal/grid"
	"github.com/kelseym/tilestitch/internal/stitcherr"
)

// ReadFile reads the full contents of path. Buffering the whole file
// up front means the decode step never has to re-open the path, so
// filenames containing arbitrary Unicode round-trip correctly regardless
// of the platform's native path encoding.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return data, nil
}

// Decode decodes image bytes, dispatching on the file extension.
// Supported extensions: png, jpg/jpeg, webp.
func Decode(data []byte, ext string) (image.Image, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return png.Decode(bytes.NewReader(data))
	case "jpg", "jpeg":
		return jpeg.Decode(bytes.NewReader(data))
	case "webp":
		return webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported tile format %q", ext)
	}
}

// DecodeFile reads and decodes path in one step.
func DecodeFile(path string) (image.Image, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, filepath.Ext(path))
}

// DecodeShape reports a tile's pixel shape without retaining the decoded
// image, for use as the grid package's ShapeDecoder.
func DecodeShape(path string) (grid.Shape, error) {
	img, err := DecodeFile(path)
	if err != nil {
		return grid.Shape{}, err
	}
	return ShapeOf(img), nil
}

// ShapeOf reports an image's width, height, and channel count (3 for
// opaque images, 4 when any pixel carries real transparency).
func ShapeOf(img image.Image) grid.Shape {
	b := img.Bounds()
	channels := 3
	if imageHasAlpha(img) {
		channels = 4
	}
	return grid.Shape{W: b.Dx(), H: b.Dy(), Channels: channels}
}

// imageHasAlpha reports whether img carries real transparency. image/png
// decodes both 8-bit truecolor (no alpha) and truecolor-with-alpha PNGs to
// *image.RGBA/*image.NRGBA, so the Go type alone can't tell them apart;
// Opaque() scans the actual pixel data and is what every standard image
// type implements for exactly this question.
func imageHasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		return true
	default:
		return false
	}
}

// ToRGBA converts any image.Image to *image.RGBA, returning the input
// unchanged when it already is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

// ToGray converts any image.Image to *image.Gray.
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// EncodePNG encodes img as PNG at compression level 1 (png.BestSpeed),
// writing the result to path. BestSpeed is used for the final mosaic and
// sidecar output because encode speed matters far
// more than file size once the image can be gigapixels in area.
func EncodePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return stitcherr.IO("encoding %q: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return stitcherr.IO("writing %q: %v", path, err)
	}
	return nil
}

// EncodeWebP encodes img as lossy WebP, writing the result to path. Offered
// as a smaller-footprint alternative to EncodePNG for the preview and
// heatmap sidecars and the final mosaic, using the same pure-Go WebP codec
// the grid indexer already decodes tiles with.
func EncodeWebP(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: 90}); err != nil {
		return stitcherr.IO("encoding %q: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return stitcherr.IO("writing %q: %v", path, err)
	}
	return nil
}

// EncodeImage picks PNG or WebP encoding by path's extension, defaulting to
// PNG for any other or missing extension. This is what the engine calls for
// the final mosaic and both sidecars, so a caller can get a WebP mosaic
// simply by naming the output path accordingly.
func EncodeImage(path string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return EncodeWebP(path, img)
	default:
		return EncodePNG(path, img)
	}
}

// NormalizeName returns name with its Unicode form canonicalized to NFC,
// so filename lookups are stable across platforms (notably macOS's HFS+/
// APFS, which decomposes accented characters to NFD in the filesystem
// layer) that disagree on how multi-byte filenames are stored.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
