package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// CompositorOptions configures caption rendering.
type CompositorOptions struct {
	// FontPath points at a TTF/OTF file. Empty selects the embedded Go font.
	FontPath string

	// OutlineColor is the halo colour. Zero value selects DefaultOutlineColor.
	OutlineColor color.NRGBA

	// FillColor is the glyph colour. Zero value selects DefaultFillColor.
	FillColor color.NRGBA
}

// Compositor draws captions onto frames.
//
// A Compositor is safe for concurrent use: each Composite call builds its
// own font.Face, since faces keep per-glyph scratch buffers.
type Compositor struct {
	font    *opentype.Font
	outline color.NRGBA
	fill    color.NRGBA
}

// NewCompositor parses the configured font and returns a ready Compositor.
func NewCompositor(opts CompositorOptions) (*Compositor, error) {
	data := goregular.TTF
	if opts.FontPath != "" {
		custom, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		data = custom
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	c := &Compositor{
		font:    parsed,
		outline: opts.OutlineColor,
		fill:    opts.FillColor,
	}
	if c.outline == (color.NRGBA{}) {
		c.outline = DefaultOutlineColor
	}
	if c.fill == (color.NRGBA{}) {
		c.fill = DefaultFillColor
	}
	return c, nil
}

// CaptionFontSize returns the caption size in pixels for a frame height.
func CaptionFontSize(frameHeight int) int {
	return frameHeight / 8
}

// StrokeWidth returns the outline radius in pixels for a scale percentage:
// four times max(1, scalePercent/40). Scales above MaxScalePercent are
// treated as MaxScalePercent.
func StrokeWidth(scalePercent int) int {
	if scalePercent > MaxScalePercent {
		scalePercent = MaxScalePercent
	}
	base := scalePercent / 40
	if base < 1 {
		base = 1
	}
	return base * 4
}

// StrokeOffsets lists every integer offset in the square of the given
// radius except the origin. The list is closed under negation.
func StrokeOffsets(width int) []image.Point {
	if width <= 0 {
		return nil
	}
	offsets := make([]image.Point, 0, (2*width+1)*(2*width+1)-1)
	for dx := -width; dx <= width; dx++ {
		for dy := -width; dy <= width; dy++ {
			if dx != 0 || dy != 0 {
				offsets = append(offsets, image.Pt(dx, dy))
			}
		}
	}
	return offsets
}

// Composite draws caption onto a copy of frame.
//
// The caption is centred horizontally with the bottom of its line box at
// height - height/16, sized at height/8 pixels. When stroke is set the
// caption is first stamped in the outline colour at every StrokeOffsets
// position for StrokeWidth(scalePercent), then drawn once in the fill colour.
// An empty caption, or a frame too short for a 1 px font, yields a plain copy.
func (c *Compositor) Composite(frame Bitmap, caption string, stroke bool, scalePercent int) (Bitmap, error) {
	if err := frame.Validate(); err != nil {
		return Bitmap{}, err
	}
	if err := ValidateScale(scalePercent); err != nil {
		return Bitmap{}, err
	}

	out := frame.Clone()
	size := CaptionFontSize(frame.Height)
	if caption == "" || size == 0 {
		return out, nil
	}

	face, err := c.newFace(size)
	if err != nil {
		return Bitmap{}, err
	}
	defer face.Close()

	dot := captionDot(face, caption, frame.Width, frame.Height)
	dst := out.view()

	if stroke {
		for _, off := range StrokeOffsets(StrokeWidth(scalePercent)) {
			drawString(dst, face, caption, dot.Add(fixed.P(off.X, off.Y)), c.outline)
		}
	}
	drawString(dst, face, caption, dot, c.fill)

	return out, nil
}

// CaptionBounds returns the part of a width x height frame that Composite
// may change for the given caption. It is empty when nothing is drawn.
func (c *Compositor) CaptionBounds(width, height int, caption string, stroke bool, scalePercent int) (image.Rectangle, error) {
	size := CaptionFontSize(height)
	if caption == "" || size == 0 {
		return image.Rectangle{}, nil
	}

	face, err := c.newFace(size)
	if err != nil {
		return image.Rectangle{}, err
	}
	defer face.Close()

	dot := captionDot(face, caption, width, height)
	ink, _ := font.BoundString(face, caption)
	r := image.Rect(
		(dot.X + ink.Min.X).Floor(), (dot.Y + ink.Min.Y).Floor(),
		(dot.X + ink.Max.X).Ceil(), (dot.Y + ink.Max.Y).Ceil(),
	)

	pad := 1
	if stroke && scalePercent > 0 {
		pad += StrokeWidth(scalePercent)
	}
	return r.Inset(-pad).Intersect(image.Rect(0, 0, width, height)), nil
}

func (c *Compositor) newFace(size int) (font.Face, error) {
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// captionDot returns the drawing origin that centres caption on width/2 and
// puts the bottom of the line box at height - height/16. Both anchors keep
// their fractional part.
func captionDot(face font.Face, caption string, width, height int) fixed.Point26_6 {
	anchorX := fixed.Int26_6(width * 64 / 2)
	anchorY := fixed.Int26_6(height*64 - height*64/16)
	advance := font.MeasureString(face, caption)
	return fixed.Point26_6{
		X: anchorX - advance/2,
		Y: anchorY - face.Metrics().Descent,
	}
}

func drawString(dst *image.NRGBA, face font.Face, s string, dot fixed.Point26_6, col color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(s)
}
