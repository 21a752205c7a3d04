package imaging

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// PNGMimeType is the MIME type of every exported frame.
const PNGMimeType = "image/png"

// RenderedFrame is a finished frame and the grid index it came from.
type RenderedFrame struct {
	Index  int
	Bitmap Bitmap
}

// ExportedFrame is a PNG-encoded frame with its suggested filename.
type ExportedFrame struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Data     []byte `json:"-"`

	// Key is the persistence key once the frame has been stored.
	Key string `json:"key,omitempty"`
}

// PartialExportError lists the frames that failed to encode. The frames that
// did encode are still returned alongside it.
type PartialExportError struct {
	Failed map[int]error
}

func (e *PartialExportError) Error() string {
	indexes := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	parts := make([]string, 0, len(indexes))
	for _, i := range indexes {
		parts = append(parts, fmt.Sprintf("frame %d: %v", i, e.Failed[i]))
	}
	return fmt.Sprintf("%s: %d frame(s) failed: %s", ErrEncodingFailure, len(indexes), strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrEncodingFailure) match.
func (e *PartialExportError) Unwrap() error {
	return ErrEncodingFailure
}

// FrameFilename returns "avatar-<index+1>-<unix millis>.png".
func FrameFilename(index int, now time.Time) string {
	return fmt.Sprintf("avatar-%d-%d.png", index+1, now.UnixMilli())
}

// EncodePNG serializes b losslessly.
func EncodePNG(b Bitmap) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, b.view(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	return buf.Bytes(), nil
}

// ExportFrames encodes every frame as PNG. Frames that fail are left out of
// the result and reported through a *PartialExportError.
func ExportFrames(frames []RenderedFrame, now time.Time) ([]ExportedFrame, error) {
	exported := make([]ExportedFrame, 0, len(frames))
	var partial *PartialExportError

	for _, f := range frames {
		data, err := EncodePNG(f.Bitmap)
		if err != nil {
			if partial == nil {
				partial = &PartialExportError{Failed: make(map[int]error)}
			}
			partial.Failed[f.Index] = err
			continue
		}
		exported = append(exported, ExportedFrame{
			Index:    f.Index,
			Filename: FrameFilename(f.Index, now),
			Data:     data,
		})
	}

	if partial != nil {
		return exported, partial
	}
	return exported, nil
}
