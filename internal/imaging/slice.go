package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// GridSpec describes how frames are laid out on a sprite sheet.
//
// Frame i sits at row i/Cols, column i%Cols.
type GridSpec struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// AvatarGrid is the 2x2 layout of a generated avatar sheet.
var AvatarGrid = GridSpec{Rows: 2, Cols: 2}

// Total returns the number of frames in the grid.
func (g GridSpec) Total() int {
	return g.Rows * g.Cols
}

// Cell returns the row and column of frame i.
func (g GridSpec) Cell(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// FrameSize returns the size of one cell on a width x height sheet.
// Division truncates: the right-most width%Cols columns and bottom-most
// height%Rows rows belong to no frame and are dropped.
func (g GridSpec) FrameSize(width, height int) (int, int) {
	return width / g.Cols, height / g.Rows
}

// CellRect returns the source rectangle of frame i on a width x height sheet.
func (g GridSpec) CellRect(i, width, height int) image.Rectangle {
	row, col := g.Cell(i)
	fw, fh := g.FrameSize(width, height)
	return image.Rect(col*fw, row*fh, (col+1)*fw, (row+1)*fh)
}

func (g GridSpec) validate(width, height int) error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return paramError("grid", g, "rows and cols must be positive")
	}
	if fw, fh := g.FrameSize(width, height); fw == 0 || fh == 0 {
		return paramError("grid", g, "sheet is smaller than one pixel per cell")
	}
	return nil
}

const (
	// MaxScalePercent is the largest accepted scale percentage.
	MaxScalePercent = 800

	// MaxFramePixels bounds the area of one scaled frame.
	MaxFramePixels = 1 << 26
)

// ValidateScale rejects scale percentages outside [1, MaxScalePercent].
func ValidateScale(scalePercent int) error {
	if scalePercent <= 0 {
		return paramError("scalePercent", scalePercent, "must be greater than 0")
	}
	if scalePercent > MaxScalePercent {
		return paramError("scalePercent", scalePercent, fmt.Sprintf("must be at most %d", MaxScalePercent))
	}
	return nil
}

// ScaledSize applies a percentage to a frame size, rounding half away from
// zero. Neither side drops below one pixel. Scales above MaxScalePercent
// are treated as MaxScalePercent.
func ScaledSize(width, height, scalePercent int) (int, int) {
	if scalePercent > MaxScalePercent {
		scalePercent = MaxScalePercent
	}
	scale := func(v int) int {
		s := (int64(v)*int64(scalePercent) + 50) / 100
		if s < 1 {
			return 1
		}
		return int(s)
	}
	return scale(width), scale(height)
}

// SliceFrames cuts b into grid.Total() frames in row-major order and
// rescales each by scalePercent with nearest-neighbour sampling.
//
// Every returned frame owns its buffer. Returns ErrInvalidParameter when
// scalePercent is outside [1, MaxScalePercent], a scaled frame would exceed
// MaxFramePixels, or the grid does not fit the sheet.
func SliceFrames(b Bitmap, grid GridSpec, scalePercent int) ([]Bitmap, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateScale(scalePercent); err != nil {
		return nil, err
	}
	if err := grid.validate(b.Width, b.Height); err != nil {
		return nil, err
	}

	fw, fh := grid.FrameSize(b.Width, b.Height)
	outW, outH := ScaledSize(fw, fh, scalePercent)
	if int64(outW)*int64(outH) > MaxFramePixels {
		return nil, paramError("scalePercent", scalePercent, fmt.Sprintf("scaled frame %dx%d exceeds %d pixels", outW, outH, MaxFramePixels))
	}
	src := b.view()

	frames := make([]Bitmap, 0, grid.Total())
	for i := 0; i < grid.Total(); i++ {
		cell := imaging.Crop(src, grid.CellRect(i, b.Width, b.Height))
		if outW != fw || outH != fh {
			cell = imaging.Resize(cell, outW, outH, imaging.NearestNeighbor)
		}
		frames = append(frames, fromNRGBA(cell))
	}
	return frames, nil
}
