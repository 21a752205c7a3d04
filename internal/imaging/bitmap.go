package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Bitmap is a raster of non-premultiplied RGBA pixels.
//
// Pix holds Width*Height*4 bytes in R, G, B, A order, row-major with the
// origin at the top-left corner. The layout is identical to image.NRGBA with
// a stride of Width*4, so conversions in either direction preserve every
// byte, including the colour of fully transparent pixels.
//
// A Bitmap is treated as immutable once produced: every stage that changes
// pixel data works on a private copy.
type Bitmap struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBitmap builds a Bitmap from a copy of pix.
//
// Returns ErrInvalidBitmap if the buffer length does not match the dimensions.
func NewBitmap(width, height int, pix []uint8) (Bitmap, error) {
	b := Bitmap{Width: width, Height: height, Pix: pix}
	if err := b.Validate(); err != nil {
		return Bitmap{}, err
	}
	return b.Clone(), nil
}

// Validate checks the buffer length invariant.
func (b Bitmap) Validate() error {
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidBitmap, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, buffer has %d",
			ErrInvalidBitmap, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// Clone returns a deep copy that shares no memory with b.
func (b Bitmap) Clone() Bitmap {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return Bitmap{Width: b.Width, Height: b.Height, Pix: pix}
}

// Bounds returns the pixel rectangle of the bitmap.
func (b Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// At returns the pixel at (x, y). The caller keeps coordinates in bounds.
func (b Bitmap) At(x, y int) color.NRGBA {
	i := (y*b.Width + x) * 4
	return color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// AlphaAt returns the alpha channel at (x, y).
func (b Bitmap) AlphaAt(x, y int) uint8 {
	return b.Pix[(y*b.Width+x)*4+3]
}

// NRGBA returns a copy of the bitmap as an *image.NRGBA.
func (b Bitmap) NRGBA() *image.NRGBA {
	return b.Clone().view()
}

// view wraps the bitmap's own buffer; writes through it change b.
func (b Bitmap) view() *image.NRGBA {
	return &image.NRGBA{Pix: b.Pix, Stride: b.Width * 4, Rect: b.Bounds()}
}

// FromImage converts any decoded image into a Bitmap.
//
// Non-NRGBA sources are converted through imaging.Clone, which normalises
// colour models and moves the origin to (0, 0).
func FromImage(img image.Image) Bitmap {
	if n, ok := img.(*image.NRGBA); ok {
		return fromNRGBA(n)
	}
	return fromNRGBA(imaging.Clone(img))
}

// fromNRGBA copies n row by row so a sub-image stride never leaks into Pix.
func fromNRGBA(n *image.NRGBA) Bitmap {
	r := n.Bounds()
	w, h := r.Dx(), r.Dy()
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		start := n.PixOffset(r.Min.X, r.Min.Y+y)
		copy(pix[y*w*4:(y+1)*w*4], n.Pix[start:start+w*4])
	}
	return Bitmap{Width: w, Height: h, Pix: pix}
}
