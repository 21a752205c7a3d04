package imaging

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := NewCompositor(CompositorOptions{})
	if err != nil {
		t.Fatalf("NewCompositor failed: %v", err)
	}
	return c
}

// diffPixels returns the coordinates where a and b differ.
func diffPixels(a, b Bitmap) []image.Point {
	var diff []image.Point
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			if a.At(x, y) != b.At(x, y) {
				diff = append(diff, image.Pt(x, y))
			}
		}
	}
	return diff
}

func TestStrokeWidth(t *testing.T) {
	tests := []struct {
		scale int
		want  int
	}{
		{1, 4},
		{39, 4},
		{40, 4},
		{50, 4},
		{80, 8},
		{100, 8},
		{120, 12},
		{200, 20},
		{MaxScalePercent, 80},
		{1 << 40, 80},
	}

	for _, tt := range tests {
		if got := StrokeWidth(tt.scale); got != tt.want {
			t.Errorf("StrokeWidth(%d) = %d, want %d", tt.scale, got, tt.want)
		}
	}
}

func TestStrokeOffsets(t *testing.T) {
	for _, w := range []int{1, 4, 8} {
		offsets := StrokeOffsets(w)
		if want := (2*w+1)*(2*w+1) - 1; len(offsets) != want {
			t.Errorf("width %d: %d offsets, want %d", w, len(offsets), want)
		}

		set := make(map[image.Point]bool, len(offsets))
		for _, p := range offsets {
			if p == (image.Point{}) {
				t.Errorf("width %d: origin must be excluded", w)
			}
			if p.X < -w || p.X > w || p.Y < -w || p.Y > w {
				t.Errorf("width %d: offset %v out of range", w, p)
			}
			if set[p] {
				t.Errorf("width %d: duplicate offset %v", w, p)
			}
			set[p] = true
		}
		for p := range set {
			if !set[image.Pt(-p.X, -p.Y)] {
				t.Errorf("width %d: %v has no mirror", w, p)
			}
		}
	}

	if StrokeOffsets(0) != nil {
		t.Error("zero width should yield no offsets")
	}
}

func TestComposite_EmptyCaption(t *testing.T) {
	c := newTestCompositor(t)
	frame := solidBitmap(32, 32, red)

	out, err := c.Composite(frame, "", true, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if d := diffPixels(frame, out); len(d) != 0 {
		t.Errorf("empty caption changed %d pixels", len(d))
	}
	out.Pix[0] = 0
	if frame.Pix[0] != 255 {
		t.Error("Composite must return a copy")
	}
}

func TestComposite_TinyFrame(t *testing.T) {
	c := newTestCompositor(t)
	frame := solidBitmap(7, 7, red)

	out, err := c.Composite(frame, "Hi", true, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if d := diffPixels(frame, out); len(d) != 0 {
		t.Errorf("frame below 8px high changed %d pixels", len(d))
	}
}

func TestComposite_DrawsInsideBounds(t *testing.T) {
	c := newTestCompositor(t)
	frame := solidBitmap(128, 128, red)

	for _, stroke := range []bool{false, true} {
		out, err := c.Composite(frame, "Hi", stroke, 100)
		if err != nil {
			t.Fatalf("Composite failed: %v", err)
		}
		bounds, err := c.CaptionBounds(128, 128, "Hi", stroke, 100)
		if err != nil {
			t.Fatalf("CaptionBounds failed: %v", err)
		}

		diff := diffPixels(frame, out)
		if len(diff) == 0 {
			t.Fatalf("stroke=%v: caption changed nothing", stroke)
		}
		for _, p := range diff {
			if !p.In(bounds) {
				t.Fatalf("stroke=%v: pixel %v changed outside %v", stroke, p, bounds)
			}
		}
	}
}

func TestComposite_FillAndHalo(t *testing.T) {
	c := newTestCompositor(t)
	frame := solidBitmap(128, 128, red)

	out, err := c.Composite(frame, "H", true, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	var sawBlack, sawWhite bool
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			switch out.At(x, y) {
			case black:
				sawBlack = true
			case white:
				sawWhite = true
			}
		}
	}
	if !sawBlack {
		t.Error("expected solid fill pixels")
	}
	if !sawWhite {
		t.Error("expected solid outline pixels")
	}
}

func TestComposite_NoStrokeHasNoHalo(t *testing.T) {
	c := newTestCompositor(t)
	frame := solidBitmap(128, 128, red)

	out, err := c.Composite(frame, "H", false, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if out.At(x, y) == white {
				t.Fatalf("white pixel at (%d,%d) without stroke", x, y)
			}
		}
	}
}

func TestComposite_BottomCentred(t *testing.T) {
	c := newTestCompositor(t)
	bounds, err := c.CaptionBounds(128, 128, "Hi", false, 100)
	if err != nil {
		t.Fatalf("CaptionBounds failed: %v", err)
	}
	if bounds.Empty() {
		t.Fatal("bounds should not be empty")
	}
	if bounds.Min.Y < 128/2 {
		t.Errorf("caption should sit in the lower half, bounds %v", bounds)
	}
	if bounds.Max.Y > 128-128/16+1 {
		t.Errorf("caption should end at the baseline, bounds %v", bounds)
	}
	centre := (bounds.Min.X + bounds.Max.X) / 2
	if centre < 64-4 || centre > 64+4 {
		t.Errorf("caption not centred: bounds %v", bounds)
	}
}

func TestComposite_CustomColors(t *testing.T) {
	blue := color.NRGBA{0, 0, 255, 255}
	c, err := NewCompositor(CompositorOptions{FillColor: blue, OutlineColor: black})
	if err != nil {
		t.Fatalf("NewCompositor failed: %v", err)
	}
	out, err := c.Composite(solidBitmap(128, 128, red), "H", true, 100)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	var sawBlue bool
	for y := 0; y < out.Height && !sawBlue; y++ {
		for x := 0; x < out.Width; x++ {
			if out.At(x, y) == blue {
				sawBlue = true
				break
			}
		}
	}
	if !sawBlue {
		t.Error("expected custom fill colour")
	}
}

func TestCaptionBounds_Empty(t *testing.T) {
	c := newTestCompositor(t)
	r, err := c.CaptionBounds(64, 64, "", true, 100)
	if err != nil {
		t.Fatalf("CaptionBounds failed: %v", err)
	}
	if !r.Empty() {
		t.Errorf("empty caption should have empty bounds, got %v", r)
	}
}

func TestComposite_Errors(t *testing.T) {
	c := newTestCompositor(t)

	if _, err := c.Composite(Bitmap{Width: 2, Height: 2}, "Hi", true, 100); !errors.Is(err, ErrInvalidBitmap) {
		t.Errorf("malformed frame: got %v, want ErrInvalidBitmap", err)
	}
	if _, err := c.Composite(solidBitmap(16, 16, red), "Hi", true, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero scale: got %v, want ErrInvalidParameter", err)
	}
	if _, err := c.Composite(solidBitmap(16, 16, red), "Hi", true, MaxScalePercent+1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("scale above maximum: got %v, want ErrInvalidParameter", err)
	}
}

func TestNewCompositor_BadFont(t *testing.T) {
	if _, err := NewCompositor(CompositorOptions{FontPath: "/nonexistent/font.ttf"}); err == nil {
		t.Error("missing font file should fail")
	}

	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCompositor(CompositorOptions{FontPath: path}); err == nil {
		t.Error("unparseable font should fail")
	}
}
