package imaging

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Default caption colours: a white halo around black glyphs.
var (
	DefaultOutlineColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	DefaultFillColor    = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

// ParseHexColor parses "#RRGGBB" or "#RGB" (the leading # is optional) into
// an opaque colour.
func ParseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexString formats c as "#RRGGBB" (alpha excluded).
func HexString(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
