package imaging

import (
	"github.com/cenkalti/dominantcolor"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteColor is one dominant colour of a sheet and its share of the image.
type PaletteColor struct {
	Hex    string  `json:"hex"`
	Weight float64 `json:"weight"`
}

// DominantColors returns up to n dominant colours of b, heaviest first.
func DominantColors(b Bitmap, n int) []PaletteColor {
	if n <= 0 || b.Validate() != nil || b.Width == 0 || b.Height == 0 {
		return nil
	}

	found := dominantcolor.FindWeight(b.view(), n)
	out := make([]PaletteColor, 0, len(found))
	for _, c := range found {
		col, ok := colorful.MakeColor(c.RGBA)
		if !ok {
			continue
		}
		out = append(out, PaletteColor{Hex: col.Clamped().Hex(), Weight: c.Weight})
	}
	return out
}

// SuggestBackground picks the removal mode whose predicate matches more than
// half of the border pixels, or BackgroundNone when neither does.
func SuggestBackground(b Bitmap) BackgroundMode {
	if b.Validate() != nil || b.Width == 0 || b.Height == 0 {
		return BackgroundNone
	}

	light, _ := BackgroundLight.matcher()
	dark, _ := BackgroundDark.matcher()

	var total, lightCount, darkCount int
	forEachBorderPixel(b.Width, b.Height, func(p int) {
		total++
		if light(b.Pix, p) {
			lightCount++
		} else if dark(b.Pix, p) {
			darkCount++
		}
	})

	switch {
	case lightCount*2 > total:
		return BackgroundLight
	case darkCount*2 > total:
		return BackgroundDark
	default:
		return BackgroundNone
	}
}

// forEachBorderPixel calls fn once for every pixel index on the outer border
// of a w x h image.
func forEachBorderPixel(w, h int, fn func(p int)) {
	for x := 0; x < w; x++ {
		fn(x)
		if h > 1 {
			fn((h-1)*w + x)
		}
	}
	for y := 1; y < h-1; y++ {
		fn(y * w)
		if w > 1 {
			fn(y*w + w - 1)
		}
	}
}
