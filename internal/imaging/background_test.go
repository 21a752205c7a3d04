package imaging

import (
	"encoding/json"
	"errors"
	"image/color"
	"testing"
)

// scenarioSheet builds the 64x64 light-background sheet: white everywhere
// except a black square over [20,40) with one stray white pixel at (30,30).
func scenarioSheet() Bitmap {
	b := solidBitmap(64, 64, white)
	fillRect(b, 20, 20, 40, 40, black)
	setPixel(b, 30, 30, white)
	return b
}

func TestParseBackgroundMode(t *testing.T) {
	tests := []struct {
		in   string
		want BackgroundMode
	}{
		{"", BackgroundNone},
		{"none", BackgroundNone},
		{"light", BackgroundLight},
		{"Light-Background", BackgroundLight},
		{"white", BackgroundLight},
		{"dark", BackgroundDark},
		{"dark-background", BackgroundDark},
		{"black", BackgroundDark},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackgroundMode(tt.in)
			if err != nil {
				t.Fatalf("ParseBackgroundMode(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParseBackgroundMode("green"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("unknown mode: got %v, want ErrInvalidParameter", err)
	}
}

func TestBackgroundMode_JSON(t *testing.T) {
	var v struct {
		Mode BackgroundMode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"dark"}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.Mode != BackgroundDark {
		t.Errorf("got %v, want dark", v.Mode)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"mode":"dark"}` {
		t.Errorf("got %s", out)
	}
}

func TestExtractBackground_None(t *testing.T) {
	b := scenarioSheet()
	out, err := ExtractBackground(b, BackgroundNone)
	if err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if out.AlphaAt(x, y) != 255 {
				t.Fatalf("pixel (%d,%d) changed alpha in none mode", x, y)
			}
		}
	}
	out.Pix[0] = 1
	if b.Pix[0] != 255 {
		t.Error("none mode must still return a copy")
	}
}

func TestExtractBackground_Scenario(t *testing.T) {
	b := scenarioSheet()
	out, err := ExtractBackground(b, BackgroundLight)
	if err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}

	for _, p := range [][2]int{{0, 0}, {63, 0}, {0, 63}, {63, 63}, {1, 32}, {32, 1}, {10, 10}} {
		if a := out.AlphaAt(p[0], p[1]); a != 0 {
			t.Errorf("background pixel %v: alpha %d, want 0", p, a)
		}
	}
	for y := 20; y < 40; y++ {
		for x := 20; x < 40; x++ {
			if a := out.AlphaAt(x, y); a != 255 {
				t.Fatalf("subject pixel (%d,%d): alpha %d, want 255", x, y, a)
			}
		}
	}
	if a := out.AlphaAt(30, 30); a != 255 {
		t.Errorf("enclosed white pixel: alpha %d, want 255", a)
	}
}

func TestExtractBackground_KeepsRGB(t *testing.T) {
	b := solidBitmap(4, 4, color.NRGBA{240, 250, 245, 255})
	out, err := ExtractBackground(b, BackgroundLight)
	if err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}
	if got := out.At(2, 2); got != (color.NRGBA{240, 250, 245, 0}) {
		t.Errorf("got %v, want RGB kept with alpha 0", got)
	}
}

func TestExtractBackground_DoesNotMutateInput(t *testing.T) {
	b := scenarioSheet()
	before := b.Clone()
	if _, err := ExtractBackground(b, BackgroundLight); err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}
	for i := range b.Pix {
		if b.Pix[i] != before.Pix[i] {
			t.Fatalf("input modified at byte %d", i)
		}
	}
}

func TestExtractBackground_BorderContainment(t *testing.T) {
	// Dark frame two pixels wide around a red interior holding a dark island.
	b := solidBitmap(12, 12, red)
	fillRect(b, 0, 0, 12, 2, black)
	fillRect(b, 0, 10, 12, 12, black)
	fillRect(b, 0, 0, 2, 12, black)
	fillRect(b, 10, 0, 12, 12, black)
	fillRect(b, 5, 5, 7, 7, black)

	out, err := ExtractBackground(b, BackgroundDark)
	if err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}

	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			border := x < 2 || x >= 10 || y < 2 || y >= 10
			want := uint8(255)
			if border {
				want = 0
			}
			if a := out.AlphaAt(x, y); a != want {
				t.Errorf("pixel (%d,%d): alpha %d, want %d", x, y, a, want)
			}
		}
	}
}

func TestExtractBackground_NoDiagonalLeak(t *testing.T) {
	// The white pixel at (1,1) touches the white corner only diagonally.
	b := solidBitmap(3, 3, black)
	setPixel(b, 0, 0, white)
	setPixel(b, 1, 1, white)

	out, err := ExtractBackground(b, BackgroundLight)
	if err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}
	if out.AlphaAt(0, 0) != 0 {
		t.Error("corner seed should be cleared")
	}
	if out.AlphaAt(1, 1) != 255 {
		t.Error("diagonal neighbour must not be reached")
	}
}

func TestExtractBackground_Tolerance(t *testing.T) {
	tests := []struct {
		name  string
		mode  BackgroundMode
		c     color.NRGBA
		clear bool
	}{
		{"light just inside", BackgroundLight, color.NRGBA{226, 226, 226, 255}, true},
		{"light on threshold", BackgroundLight, color.NRGBA{225, 255, 255, 255}, false},
		{"dark just inside", BackgroundDark, color.NRGBA{29, 29, 29, 255}, true},
		{"dark on threshold", BackgroundDark, color.NRGBA{0, 30, 0, 255}, false},
		{"alpha ignored", BackgroundDark, color.NRGBA{0, 0, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := tt.mode.matcher()
			if err != nil {
				t.Fatalf("matcher: %v", err)
			}
			pix := []uint8{tt.c.R, tt.c.G, tt.c.B, tt.c.A}
			if got := match(pix, 0); got != tt.clear {
				t.Errorf("match = %v, want %v", got, tt.clear)
			}
		})
	}
}

func TestExtractBackground_Idempotent(t *testing.T) {
	for _, mode := range []BackgroundMode{BackgroundLight, BackgroundDark} {
		t.Run(mode.String(), func(t *testing.T) {
			b := scenarioSheet()
			once, err := ExtractBackground(b, mode)
			if err != nil {
				t.Fatalf("first pass: %v", err)
			}
			twice, err := ExtractBackground(once, mode)
			if err != nil {
				t.Fatalf("second pass: %v", err)
			}
			for i := 3; i < len(once.Pix); i += 4 {
				if once.Pix[i] != twice.Pix[i] {
					t.Fatalf("alpha differs at pixel %d", i/4)
				}
			}
		})
	}
}

func TestFloodFill_VisitsEachPixelOnce(t *testing.T) {
	// Every pixel matches, so every pixel is a candidate from several sides.
	b := solidBitmap(9, 7, white)
	match, err := BackgroundLight.matcher()
	if err != nil {
		t.Fatal(err)
	}
	if n := floodFill(b, match); n != 9*7 {
		t.Errorf("visited %d pixels, want %d", n, 9*7)
	}
}

func TestExtractBackground_SinglePixel(t *testing.T) {
	out, err := ExtractBackground(solidBitmap(1, 1, white), BackgroundLight)
	if err != nil {
		t.Fatalf("ExtractBackground failed: %v", err)
	}
	if out.AlphaAt(0, 0) != 0 {
		t.Error("single matching pixel should be cleared")
	}
}

func TestExtractBackground_Errors(t *testing.T) {
	bad := Bitmap{Width: 4, Height: 4, Pix: make([]uint8, 10)}
	if _, err := ExtractBackground(bad, BackgroundLight); !errors.Is(err, ErrInvalidBitmap) {
		t.Errorf("malformed bitmap: got %v, want ErrInvalidBitmap", err)
	}

	var pe *ParamError
	_, err := ExtractBackground(solidBitmap(2, 2, white), BackgroundMode(9))
	if !errors.As(err, &pe) || pe.Name != "background" {
		t.Errorf("unknown mode: got %v, want ParamError for background", err)
	}
}
