package imgio

import (
	"image"
	"image/color"
	"math"
)

// grayKey keys the grayscale tile cache by source path and downscale
// factor, matching the original's (path, downscale) memoization key.
type grayKey struct {
	path      string
	downscale float64
}

// TileReader reads tiles through two bounded LRU caches: one for
// grayscale reads (used by the matcher, optionally downscaled), one for
// full-color reads (used by the compositor and preview sidecar). Capacity
// is a single bound shared by both, per the spec's single cache_max_items
// knob.
type TileReader struct {
	gray  *Cache[grayKey, *image.Gray]
	color *Cache[string, image.Image]
}

// NewTileReader creates a reader whose caches each hold at most capacity
// entries.
func NewTileReader(capacity int) *TileReader {
	return &TileReader{
		gray:  NewCache[grayKey, *image.Gray](capacity),
		color: NewCache[string, image.Image](capacity),
	}
}

// Gray reads path as grayscale, applying box-filter downscale when
// downscale != 1. Results are cached by (path, downscale).
func (r *TileReader) Gray(path string, downscale float64) (*image.Gray, error) {
	key := grayKey{path: path, downscale: downscale}
	if cached, ok := r.gray.Get(key); ok {
		return cached, nil
	}

	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	gray := ToGray(img)
	if downscale != 1 {
		gray = downscaleGray(gray, downscale)
	}
	r.gray.Put(key, gray)
	return gray, nil
}

// Color reads path as a full-color image. Results are cached by path.
func (r *TileReader) Color(path string) (image.Image, error) {
	if cached, ok := r.color.Get(path); ok {
		return cached, nil
	}
	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	r.color.Put(path, img)
	return img, nil
}

// GrayLen and ColorLen expose cache occupancy for tests.
func (r *TileReader) GrayLen() int  { return r.gray.Len() }
func (r *TileReader) ColorLen() int { return r.color.Len() }

// downscaleGray box-filters src down by factor (0 < factor < 1), the
// grayscale analogue of image/draw's area-averaging resize.
func downscaleGray(src *image.Gray, factor float64) *image.Gray {
	b := src.Bounds()
	dw := int(math.Round(float64(b.Dx()) * factor))
	dh := int(math.Round(float64(b.Dy()) * factor))
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewGray(image.Rect(0, 0, dw, dh))
	for dy := 0; dy < dh; dy++ {
		sy0 := int(float64(dy) / factor)
		sy1 := int(float64(dy+1) / factor)
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		if sy1 > b.Dy() {
			sy1 = b.Dy()
		}
		for dx := 0; dx < dw; dx++ {
			sx0 := int(float64(dx) / factor)
			sx1 := int(float64(dx+1) / factor)
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			if sx1 > b.Dx() {
				sx1 = b.Dx()
			}

			var sum, count int
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					sum += int(src.GrayAt(b.Min.X+sx, b.Min.Y+sy).Y)
					count++
				}
			}
			if count == 0 {
				count = 1
			}
			dst.SetGray(dx, dy, color.Gray{Y: uint8(sum / count)})
		}
	}
	return dst
}
