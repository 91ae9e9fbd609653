// Package image samples the geometric augmentation applied to an image and
// to everything annotated on it.
package image

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidConfig marks an output size or scale range that cannot be sampled
var ErrInvalidConfig = errors.New("invalid image configuration")

// Rect is an integer rectangle in source pixel coordinates
type Rect struct {
	X, Y          int
	Width, Height int
}

// Params describes one sampled augmentation: crop the source to Cropbox,
// mirror it horizontally when Flip is set, then resize to the output size.
type Params struct {
	Cropbox      Rect
	OutputWidth  int
	OutputHeight int
	Flip         bool
}

// ScaleX is the horizontal resize factor from crop to output
func (p *Params) ScaleX() float64 {
	return float64(p.OutputWidth) / float64(p.Cropbox.Width)
}

// ScaleY is the vertical resize factor from crop to output
func (p *Params) ScaleY() float64 {
	return float64(p.OutputHeight) / float64(p.Cropbox.Height)
}

// Config holds the sampling ranges
type Config struct {
	Height     int     `json:"height" mapstructure:"height"`
	Width      int     `json:"width" mapstructure:"width"`
	ScaleMin   float64 `json:"scale_min" mapstructure:"scale_min"`
	CenterCrop bool    `json:"center_crop" mapstructure:"center_crop"`
	FlipEnable bool    `json:"flip_enable" mapstructure:"flip_enable"`
}

// Validate checks the output size and the scale range
func (c Config) Validate() error {
	if c.Height <= 0 || c.Width <= 0 {
		return fmt.Errorf("%w: output size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.ScaleMin <= 0 || c.ScaleMin > 1 {
		return fmt.Errorf("%w: scale_min %g not in (0, 1]", ErrInvalidConfig, c.ScaleMin)
	}
	return nil
}

// ParamFactory draws Params from a seeded source. Not safe for concurrent use.
type ParamFactory struct {
	cfg Config
	rng *rand.Rand
}

// NewParamFactory validates cfg and seeds the factory
func NewParamFactory(cfg Config, seed uint64) (*ParamFactory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ParamFactory{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, 0x1a9e)),
	}, nil
}

// Make samples parameters for a width x height source. The crop side lengths
// are the source's scaled by a factor in [ScaleMin, 1].
func (f *ParamFactory) Make(width, height int) *Params {
	scale := f.cfg.ScaleMin + f.rng.Float64()*(1-f.cfg.ScaleMin)

	cropW := max(1, int(math.Round(float64(width)*scale)))
	cropH := max(1, int(math.Round(float64(height)*scale)))
	cropW = min(cropW, width)
	cropH = min(cropH, height)

	var x, y int
	if f.cfg.CenterCrop {
		x = (width - cropW) / 2
		y = (height - cropH) / 2
	} else {
		x = f.rng.IntN(width - cropW + 1)
		y = f.rng.IntN(height - cropH + 1)
	}

	return &Params{
		Cropbox:      Rect{X: x, Y: y, Width: cropW, Height: cropH},
		OutputWidth:  f.cfg.Width,
		OutputHeight: f.cfg.Height,
		Flip:         f.cfg.FlipEnable && f.rng.IntN(2) == 1,
	}
}
