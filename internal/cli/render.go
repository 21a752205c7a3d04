package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ironsheep/sprite-avatar-mcp/internal/avatar"
	"github.com/ironsheep/sprite-avatar-mcp/internal/config"
	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
	"github.com/ironsheep/sprite-avatar-mcp/internal/store"
)

// defaultOutDir is used when neither --out nor AVATAR_MCP_STORE_DIR is set.
const defaultOutDir = "avatars"

// backgroundFlag adapts imaging.BackgroundMode to pflag.
type backgroundFlag struct {
	mode imaging.BackgroundMode
}

var _ pflag.Value = (*backgroundFlag)(nil)

func (f *backgroundFlag) String() string { return f.mode.String() }

func (f *backgroundFlag) Set(s string) error {
	mode, err := imaging.ParseBackgroundMode(s)
	if err != nil {
		return err
	}
	f.mode = mode
	return nil
}

func (f *backgroundFlag) Type() string { return "mode" }

type renderOptions struct {
	scale      int
	background backgroundFlag
	text       string
	stroke     bool
	font       string
	outline    string
	fill       string
	out        string
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <source>",
		Short: "Render the four avatar frames of a sprite sheet",
		Long: `Render loads a sprite sheet (file path or http(s) URL), runs the full
pipeline and writes avatar-<n>-<millis>.png for each frame.

Examples:
  # Split a sheet at full size
  avatarctl render sheet.png

  # Remove a white background, halve the size and add a caption
  avatarctl render --background light --scale 50 --text "GG" sheet.png

  # Caption without the outline, written to ./out
  avatarctl render --text hi --stroke=false --out out https://example.com/sheet.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.scale, "scale", "s", 100, "frame size as a percentage of the source cell")
	flags.VarP(&opts.background, "background", "b", "background removal (none, light, dark)")
	flags.StringVarP(&opts.text, "text", "t", "", "caption drawn at the bottom of each frame")
	flags.BoolVar(&opts.stroke, "stroke", true, "outline the caption")
	flags.StringVar(&opts.font, "font", "", "TTF/OTF font for the caption (default: embedded Go Regular)")
	flags.StringVar(&opts.outline, "outline-color", "", "caption outline colour as hex (default #ffffff)")
	flags.StringVar(&opts.fill, "fill-color", "", "caption fill colour as hex (default #000000)")
	flags.StringVarP(&opts.out, "out", "o", "", "output directory (default: $AVATAR_MCP_STORE_DIR or ./avatars)")

	return cmd
}

// applyFlags layers explicitly set flags over the environment config.
func (o *renderOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("font") {
		cfg.FontPath = o.font
	}
	if cmd.Flags().Changed("outline-color") {
		cfg.OutlineColor = o.outline
	}
	if cmd.Flags().Changed("fill-color") {
		cfg.FillColor = o.fill
	}
	if o.out != "" {
		cfg.StoreDir = o.out
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = defaultOutDir
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		if hclog.LevelFromString(lvl) == hclog.NoLevel {
			return fmt.Errorf("unknown log level %q", lvl)
		}
		cfg.LogLevel = lvl
	}
	return nil
}

func runRender(cmd *cobra.Command, opts *renderOptions, source string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	if err := opts.applyFlags(cmd, &cfg); err != nil {
		return err
	}

	logger := cfg.NewLogger(programName, cmd.ErrOrStderr())

	params := avatar.Params{
		ScalePercent: opts.scale,
		Background:   opts.background.mode,
		Caption:      opts.text,
		Stroke:       opts.stroke,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	compOpts, err := cfg.CompositorOptions()
	if err != nil {
		return err
	}
	compositor, err := imaging.NewCompositor(compOpts)
	if err != nil {
		return err
	}

	out, err := store.NewDirStore(cfg.StoreDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Debug("loading sprite sheet", "source", source)
	src, err := imaging.NewImageCache(cfg.LoaderOptions()).Load(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", source, err)
	}

	pipeline := avatar.New(compositor, avatar.WithLogger(logger.Named("pipeline")))
	result, renderErr := pipeline.Render(ctx, src, params, out)
	if result == nil {
		return renderErr
	}

	w := cmd.OutOrStdout()
	for _, f := range result.Frames {
		fmt.Fprintln(w, out.Path(f.Key))
	}
	if renderErr != nil {
		var perr *avatar.PersistError
		if errors.As(renderErr, &perr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d frames were not written\n", len(perr.Failed), imaging.AvatarGrid.Total())
		}
		return renderErr
	}
	return nil
}

