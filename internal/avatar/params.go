package avatar

import (
	"github.com/ironsheep/sprite-avatar-mcp/internal/imaging"
)

// Params are the user choices shared by all four frames.
type Params struct {
	ScalePercent int                    `json:"scale_percent"`
	Background   imaging.BackgroundMode `json:"background"`
	Caption      string                 `json:"caption"`
	Stroke       bool                   `json:"stroke"`
}

// DefaultParams returns 100% scale, no background removal, no caption and
// the outline enabled.
func DefaultParams() Params {
	return Params{
		ScalePercent: 100,
		Background:   imaging.BackgroundNone,
		Stroke:       true,
	}
}

// Validate rejects parameters no stage would accept.
func (p Params) Validate() error {
	if err := imaging.ValidateScale(p.ScalePercent); err != nil {
		return err
	}
	switch p.Background {
	case imaging.BackgroundNone, imaging.BackgroundLight, imaging.BackgroundDark:
	default:
		return &imaging.ParamError{Name: "background", Value: int(p.Background), Reason: "unknown background mode"}
	}
	return nil
}
