package imaging

import (
	"image/color"
	"strconv"
)

// DefaultGridColor marks slice boundaries in a grid preview.
var DefaultGridColor = color.NRGBA{R: 255, A: 255}

// GridOverlay returns a copy of b with the slicing boundaries of grid drawn
// as 1 px lines, so a user can check where the frames will be cut before
// slicing. Lines sit on the first column and row of every cell after the
// first, plus the start of any dropped residual. With labels set, each cell
// is tagged with its 1-based frame number in its top-left corner.
func GridOverlay(b Bitmap, grid GridSpec, lineColor color.NRGBA, labels bool) (Bitmap, error) {
	if err := b.Validate(); err != nil {
		return Bitmap{}, err
	}
	if err := grid.validate(b.Width, b.Height); err != nil {
		return Bitmap{}, err
	}

	out := b.Clone()
	dst := out.view()
	fw, fh := grid.FrameSize(b.Width, b.Height)

	// Vertical lines
	for c := 1; c <= grid.Cols; c++ {
		x := c * fw
		if x >= b.Width {
			break
		}
		for y := 0; y < b.Height; y++ {
			dst.SetNRGBA(x, y, lineColor)
		}
	}

	// Horizontal lines
	for r := 1; r <= grid.Rows; r++ {
		y := r * fh
		if y >= b.Height {
			break
		}
		for x := 0; x < b.Width; x++ {
			dst.SetNRGBA(x, y, lineColor)
		}
	}

	if labels {
		fg := color.NRGBA{255, 255, 255, 255}
		bg := color.NRGBA{0, 0, 0, 180}
		for i := 0; i < grid.Total(); i++ {
			cell := grid.CellRect(i, b.Width, b.Height)
			drawLabel(out, cell.Min.X+2, cell.Min.Y+2, strconv.Itoa(i+1), fg, bg)
		}
	}

	return out, nil
}

// labelGlyphs is a 3x5 pixel font for digits.
var labelGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text on a padded background box at (x, y), clipped to b.
func drawLabel(b Bitmap, x, y int, text string, fg, bg color.NRGBA) {
	dst := b.view()
	bounds := dst.Bounds()
	const charWidth, labelHeight = 4, 7
	labelWidth := len(text) * charWidth

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				dst.SetNRGBA(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := labelGlyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				px, py := cx+col, y+row
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					dst.SetNRGBA(px, py, fg)
				}
			}
		}
		cx += charWidth
	}
}
