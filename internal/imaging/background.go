package imaging

import (
	"fmt"
	"strings"
)

// BackgroundMode selects which background colour ExtractBackground removes.
type BackgroundMode int

const (
	// BackgroundNone leaves the bitmap untouched.
	BackgroundNone BackgroundMode = iota
	// BackgroundLight removes near-white regions touching the border.
	BackgroundLight
	// BackgroundDark removes near-black regions touching the border.
	BackgroundDark
)

// BackgroundTolerance is how far (per channel) a pixel may sit from pure
// white or pure black and still count as background.
const BackgroundTolerance = 30

// ParseBackgroundMode accepts "none", "light", "dark" and the aliases
// "light-background", "dark-background", "white" and "black".
// An empty string means none.
func ParseBackgroundMode(s string) (BackgroundMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return BackgroundNone, nil
	case "light", "light-background", "white":
		return BackgroundLight, nil
	case "dark", "dark-background", "black":
		return BackgroundDark, nil
	default:
		return BackgroundNone, paramError("background", s, "must be none, light or dark")
	}
}

func (m BackgroundMode) String() string {
	switch m {
	case BackgroundNone:
		return "none"
	case BackgroundLight:
		return "light"
	case BackgroundDark:
		return "dark"
	default:
		return fmt.Sprintf("BackgroundMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m BackgroundMode) MarshalText() ([]byte, error) {
	switch m {
	case BackgroundNone, BackgroundLight, BackgroundDark:
		return []byte(m.String()), nil
	default:
		return nil, paramError("background", int(m), "unknown mode")
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BackgroundMode) UnmarshalText(text []byte) error {
	parsed, err := ParseBackgroundMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// matcher reports whether the pixel at index p (in pixels, not bytes) is
// background. Alpha never participates.
type matcher func(pix []uint8, p int) bool

func (m BackgroundMode) matcher() (matcher, error) {
	switch m {
	case BackgroundLight:
		const floor = 255 - BackgroundTolerance
		return func(pix []uint8, p int) bool {
			i := p * 4
			return pix[i] > floor && pix[i+1] > floor && pix[i+2] > floor
		}, nil
	case BackgroundDark:
		return func(pix []uint8, p int) bool {
			i := p * 4
			return pix[i] < BackgroundTolerance && pix[i+1] < BackgroundTolerance && pix[i+2] < BackgroundTolerance
		}, nil
	default:
		return nil, paramError("background", m, "unknown mode")
	}
}

// ExtractBackground makes the background of a sprite sheet transparent.
//
// With BackgroundNone it returns an unmodified copy. Otherwise it flood-fills
// from every matching pixel on the outer border, spreading through
// 4-connected matching neighbours, and sets alpha to 0 on every pixel it
// reaches. RGB is left as it was. Matching pixels inside the subject that
// are not connected to the border through matching pixels stay opaque.
//
// The input bitmap is never modified.
func ExtractBackground(b Bitmap, mode BackgroundMode) (Bitmap, error) {
	if err := b.Validate(); err != nil {
		return Bitmap{}, err
	}
	if mode == BackgroundNone {
		return b.Clone(), nil
	}
	match, err := mode.matcher()
	if err != nil {
		return Bitmap{}, err
	}

	out := b.Clone()
	floodFill(out, match)
	return out, nil
}

// floodFill clears alpha on every border-connected matching pixel of b in
// place and returns how many pixels it visited.
func floodFill(b Bitmap, match matcher) int {
	w, h := b.Width, b.Height
	if w == 0 || h == 0 {
		return 0
	}

	visited := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	push := func(p int) {
		if !visited[p] && match(b.Pix, p) {
			visited[p] = true
			queue = append(queue, p)
		}
	}

	forEachBorderPixel(w, h, push)

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		b.Pix[p*4+3] = 0

		x, y := p%w, p/w
		if x > 0 {
			push(p - 1)
		}
		if x < w-1 {
			push(p + 1)
		}
		if y > 0 {
			push(p - w)
		}
		if y < h-1 {
			push(p + w)
		}
	}

	return len(queue)
}
