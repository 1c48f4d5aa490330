package compose

import "image"

// Blit copies src onto the canvas with its top-left corner at (originX,
// originY). Pixels whose source alpha is zero are skipped so overlapping
// tiles don't punch holes in whatever was already placed beneath them;
// fully or partially opaque pixels simply overwrite (later tiles in paint
// order win ties, matching the original tool's plain array assignment).
func Blit(c *Canvas, src *image.RGBA, originX, originY int) {
	b := src.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		dy := originY + (sy - b.Min.Y)
		if dy < 0 || dy >= c.H {
			continue
		}
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			dx := originX + (sx - b.Min.X)
			if dx < 0 || dx >= c.W {
				continue
			}
			i := src.PixOffset(sx, sy)
			a := src.Pix[i+3]
			if a == 0 {
				continue
			}
			c.Set(dx, dy, src.Pix[i], src.Pix[i+1], src.Pix[i+2], a)
		}
	}
}
