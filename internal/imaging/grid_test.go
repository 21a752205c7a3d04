package imaging

import (
	"errors"
	"testing"
)

func TestGridOverlay(t *testing.T) {
	src := solidBitmap(100, 100, black)

	out, err := GridOverlay(src, AvatarGrid, red, false)
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}

	if out.Width != 100 || out.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", out.Width, out.Height)
	}

	// Cut lines at x=50 and y=50
	for i := 0; i < 100; i++ {
		if out.At(50, i) != red {
			t.Errorf("vertical line missing at y=%d", i)
		}
		if out.At(i, 50) != red {
			t.Errorf("horizontal line missing at x=%d", i)
		}
	}

	// Everything else untouched
	if out.At(25, 25) != black || out.At(0, 0) != black || out.At(99, 99) != black {
		t.Error("non-line pixels changed")
	}

	// Input untouched
	if src.At(50, 50) != black {
		t.Error("GridOverlay modified its input")
	}
}

func TestGridOverlay_Residual(t *testing.T) {
	// 101 wide: frames are 50 px, column 100 is dropped and marked.
	out, err := GridOverlay(solidBitmap(101, 40, black), AvatarGrid, red, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.At(100, 5) != red {
		t.Error("residual column start not marked")
	}
	if out.At(50, 5) != red {
		t.Error("cut line missing")
	}
	if out.At(20, 40-1) != black {
		t.Error("bottom row should not be marked on an even height")
	}
}

func TestGridOverlay_Labels(t *testing.T) {
	out, err := GridOverlay(solidBitmap(64, 64, black), AvatarGrid, red, true)
	if err != nil {
		t.Fatal(err)
	}

	// '1' glyph: top row "010" drawn at (2,2), so (3,2) is lit.
	if out.At(3, 2) != white {
		t.Errorf("label pixel: got %v, want white", out.At(3, 2))
	}
	// Label background at the box corner
	if out.At(1, 1).A != 180 {
		t.Errorf("label background alpha: got %d, want 180", out.At(1, 1).A)
	}
	// Frame 4 label in the bottom-right cell: '4' top row "101"
	if out.At(34, 34) != white {
		t.Errorf("frame 4 label missing")
	}
}

func TestGridOverlay_Errors(t *testing.T) {
	if _, err := GridOverlay(Bitmap{Width: 2, Height: 2}, AvatarGrid, red, false); !errors.Is(err, ErrInvalidBitmap) {
		t.Errorf("broken bitmap: got %v", err)
	}
	if _, err := GridOverlay(solidBitmap(1, 1, black), AvatarGrid, red, false); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("tiny sheet: got %v", err)
	}
	if _, err := GridOverlay(solidBitmap(8, 8, black), GridSpec{}, red, false); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("empty grid: got %v", err)
	}
}
