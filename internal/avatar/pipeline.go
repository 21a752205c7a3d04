// Package avatar runs the sprite sheet pipeline end to end: background
// removal, slicing into four frames, captioning and export.
//
// The pipeline is pure input and output. It never reads the wizard session
// state kept alongside it; callers load that state and pass Params in.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
	"github.com/ironsheep/sprite-avatar-mcp/internal/store"
)

// Pipeline chains the extractor, slicer and compositor.
type Pipeline struct {
	compositor *imaging.Compositor
	grid       imaging.GridSpec
	logger     hclog.Logger
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l hclog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock replaces time.Now when naming exported frames.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New returns a pipeline over the 2x2 avatar grid.
func New(compositor *imaging.Compositor, opts ...Option) *Pipeline {
	p := &Pipeline{
		compositor: compositor,
		grid:       imaging.AvatarGrid,
		logger:     hclog.NewNullLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Compositor returns the caption renderer the pipeline draws with.
func (p *Pipeline) Compositor() *imaging.Compositor {
	return p.compositor
}

// Extract runs the background extractor only.
func (p *Pipeline) Extract(ctx context.Context, src imaging.Bitmap, mode imaging.BackgroundMode) (imaging.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return imaging.Bitmap{}, err
	}
	return imaging.ExtractBackground(src, mode)
}

// Slice runs the extractor and slicer, returning the four uncaptioned frames.
func (p *Pipeline) Slice(ctx context.Context, src imaging.Bitmap, params Params) ([]imaging.Bitmap, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	sheet, err := p.Extract(ctx, src, params.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames, err := imaging.SliceFrames(sheet, p.grid, params.ScalePercent)
	if err != nil {
		return nil, fmt.Errorf("slice: %w", err)
	}
	return frames, nil
}

// Run produces the four captioned frames for src. The source bitmap is
// never modified. Cancellation is observed between stages.
func (p *Pipeline) Run(ctx context.Context, src imaging.Bitmap, params Params) ([]imaging.RenderedFrame, error) {
	start := time.Now()

	frames, err := p.Slice(ctx, src, params)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rendered := make([]imaging.RenderedFrame, len(frames))
	errs := make([]error, len(frames))

	var wg sync.WaitGroup
	for i, frame := range frames {
		wg.Add(1)
		go func(i int, frame imaging.Bitmap) {
			defer wg.Done()
			out, err := p.compositor.Composite(frame, params.Caption, params.Stroke, params.ScalePercent)
			if err != nil {
				errs[i] = fmt.Errorf("frame %d: %w", i, err)
				return
			}
			rendered[i] = imaging.RenderedFrame{Index: i, Bitmap: out}
		}(i, frame)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("caption: %w", err)
	}

	p.logger.Debug("rendered frames",
		"source", fmt.Sprintf("%dx%d", src.Width, src.Height),
		"frame", fmt.Sprintf("%dx%d", rendered[0].Bitmap.Width, rendered[0].Bitmap.Height),
		"background", params.Background,
		"scale", params.ScalePercent,
		"caption", params.Caption != "",
		"elapsed", time.Since(start))

	return rendered, nil
}

// Export encodes rendered frames as PNG using the pipeline clock for
// filenames. See imaging.ExportFrames for partial failure handling.
func (p *Pipeline) Export(ctx context.Context, frames []imaging.RenderedFrame) ([]imaging.ExportedFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exported, err := imaging.ExportFrames(frames, p.now())
	if err != nil {
		p.logger.Warn("some frames failed to encode", "error", err)
	}
	return exported, err
}

// PersistError lists the frames the store rejected.
type PersistError struct {
	Failed map[int]error
}

func (e *PersistError) Error() string {
	indexes := make([]int, 0, len(e.Failed))
	for i := range e.Failed {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	parts := make([]string, 0, len(indexes))
	for _, i := range indexes {
		parts = append(parts, fmt.Sprintf("frame %d: %v", i, e.Failed[i]))
	}
	return fmt.Sprintf("%d frame(s) not stored: %s", len(indexes), strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, store.ErrStoreFailure) match.
func (e *PersistError) Unwrap() error {
	return store.ErrStoreFailure
}

// Persist writes each exported frame to s under its filename and returns
// the frames that were stored, with Key set. Failures are not retried; the
// exported frames stay valid for another attempt.
func (p *Pipeline) Persist(ctx context.Context, s store.Store, exported []imaging.ExportedFrame) ([]imaging.ExportedFrame, error) {
	stored := make([]imaging.ExportedFrame, 0, len(exported))
	var perr *PersistError

	for _, f := range exported {
		if err := s.Put(ctx, f.Filename, f.Data); err != nil {
			if perr == nil {
				perr = &PersistError{Failed: make(map[int]error)}
			}
			perr.Failed[f.Index] = err
			continue
		}
		f.Key = f.Filename
		stored = append(stored, f)
	}

	if perr != nil {
		p.logger.Warn("failed to store frames", "error", perr)
		return stored, perr
	}
	p.logger.Info("stored frames", "count", len(stored))
	return stored, nil
}

// ExportResult is the outcome of Render: every frame that made it to the
// store plus the failures along the way.
type ExportResult struct {
	Frames []imaging.ExportedFrame `json:"frames"`
	Errors []string                `json:"errors,omitempty"`
}

// Render runs the full pipeline and stores the result. Encoding and store
// failures are partial: the result still carries every frame that succeeded
// and the returned error joins what went wrong.
func (p *Pipeline) Render(ctx context.Context, src imaging.Bitmap, params Params, s store.Store) (*ExportResult, error) {
	frames, err := p.Run(ctx, src, params)
	if err != nil {
		return nil, err
	}

	exported, encErr := p.Export(ctx, frames)
	if encErr != nil && len(exported) == 0 {
		return nil, encErr
	}

	stored, storeErr := p.Persist(ctx, s, exported)

	result := &ExportResult{Frames: stored}
	for _, e := range []error{encErr, storeErr} {
		if e != nil {
			result.Errors = append(result.Errors, e.Error())
		}
	}
	return result, errors.Join(encErr, storeErr)
}
