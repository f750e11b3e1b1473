package receipt

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration

	"golang.org/x/image/draw"
)

// Logo raster limits, in printer dots.
const (
	LogoMaxWidth  = 180
	LogoMaxHeight = 80
	// LogoMinSide is the smallest source or scaled side worth printing.
	LogoMinSide = 8

	// darkThreshold is the gray level below which a pixel prints black.
	darkThreshold = 180
)

// LogoRaster converts an encoded image into a GS v 0 raster command scaled
// to fit LogoMaxWidth x LogoMaxHeight. It returns nil if the image cannot be
// decoded or either side of the source or the scaled bitmap is under
// LogoMinSide, so callers fall back to a text header.
func LogoRaster(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	sb := src.Bounds()
	if sb.Dx() < LogoMinSide || sb.Dy() < LogoMinSide {
		return nil
	}

	scale := min(float64(LogoMaxWidth)/float64(sb.Dx()), float64(LogoMaxHeight)/float64(sb.Dy()))
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	if w < LogoMinSide || h < LogoMinSide {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	return rasterCommand(dst)
}

// rasterCommand packs img as 1-bit rows, 8 pixels per byte MSB first, with
// the row width padded to a whole byte.
func rasterCommand(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rowBytes := (w + 7) / 8

	out := make([]byte, 0, 8+rowBytes*h)
	out = append(out, gs, 'v', '0', 0,
		byte(rowBytes%256), byte(rowBytes/256),
		byte(h%256), byte(h/256),
	)
	for y := 0; y < h; y++ {
		row := make([]byte, rowBytes)
		for x := 0; x < w; x++ {
			if isDark(img.RGBAAt(b.Min.X+x, b.Min.Y+y)) {
				row[x/8] |= 0x80 >> (x % 8)
			}
		}
		out = append(out, row...)
	}
	return out
}

// isDark blends c over white and compares its luminance to darkThreshold.
func isDark(c color.RGBA) bool {
	a := float64(c.A) / 255
	blend := func(v uint8) float64 {
		// RGBA is premultiplied.
		return float64(v) + 255*(1-a)
	}
	gray := 0.299*blend(c.R) + 0.587*blend(c.G) + 0.114*blend(c.B)
	return gray < darkThreshold
}
