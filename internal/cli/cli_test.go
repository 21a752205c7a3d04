package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

// writeSheet writes a w x h white sheet with a black square in every cell.
func writeSheet(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if cx, cy := x%(w/2), y%(h/2); cx > 4 && cx < w/2-4 && cy > 4 && cy < h/2-4 {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "sheet.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRender(t *testing.T) {
	sheet := writeSheet(t, 80, 60)
	outDir := filepath.Join(t.TempDir(), "frames")

	stdout, _, err := execute(t, "render", sheet,
		"--background", "light",
		"--scale", "50",
		"--text", "Hi",
		"--out", outDir)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	lines := strings.Fields(stdout)
	if len(lines) != 4 {
		t.Fatalf("got %d output paths, want 4: %q", len(lines), stdout)
	}
	for i, path := range lines {
		if !strings.HasPrefix(filepath.Base(path), "avatar-") {
			t.Errorf("unexpected filename %s", path)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("frame %d not written: %v", i, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("frame %d is not a PNG: %v", i, err)
		}
		if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 15 {
			t.Errorf("frame %d is %v, want 20x15", i, img.Bounds())
		}
		if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
			t.Errorf("frame %d corner should be transparent", i)
		}
	}
}

func TestRender_StoreDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AVATAR_MCP_STORE_DIR", dir)

	if _, _, err := execute(t, "render", writeSheet(t, 40, 40)); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	pngs, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(pngs) != 4 {
		t.Errorf("got %d PNGs in store dir, want 4", len(pngs))
	}
}

func TestRender_Errors(t *testing.T) {
	sheet := writeSheet(t, 40, 40)
	out := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"render"}, "accepts 1 arg"},
		{"bad background", []string{"render", sheet, "--background", "plaid", "--out", out}, "plaid"},
		{"zero scale", []string{"render", sheet, "--scale", "0", "--out", out}, "scalePercent"},
		{"missing file", []string{"render", filepath.Join(out, "nope.png"), "--out", out}, "failed to load"},
		{"bad colour", []string{"render", sheet, "--fill-color", "#zz", "--out", out}, "fill color"},
		{"bad log level", []string{"render", sheet, "--log-level", "loud", "--out", out}, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestBackgroundFlag(t *testing.T) {
	var f backgroundFlag
	if f.String() != "none" {
		t.Errorf("zero value: got %s", f.String())
	}
	if err := f.Set("dark-background"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if f.mode != imaging.BackgroundDark {
		t.Errorf("mode: got %v", f.mode)
	}
	if f.Type() != "mode" {
		t.Errorf("Type: got %s", f.Type())
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "avatarctl ") {
		t.Errorf("unexpected output %q", stdout)
	}
}
