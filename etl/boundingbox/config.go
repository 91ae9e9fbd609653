// Package boundingbox implements the extract/transform/load stages for
// object detection annotations.
package boundingbox

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration errors found by NewConfig
var ErrInvalidConfig = errors.New("invalid bounding box configuration")

const (
	TypeFloat = "float"
	TypeInt32 = "int32"
)

// Config describes the annotations of one dataset and the layout of the
// destination buffers.
type Config struct {
	Height          int      `json:"height" mapstructure:"height" yaml:"height"`
	Width           int      `json:"width" mapstructure:"width" yaml:"width"`
	MaxBBoxCount    int      `json:"max_bbox_count" mapstructure:"max_bbox_count" yaml:"max_bbox_count"`
	Labels          []string `json:"labels" mapstructure:"labels" yaml:"labels"`
	TypeString      string   `json:"type_string" mapstructure:"type_string" yaml:"type_string"`
	OutputDifficult bool     `json:"output_difficult" mapstructure:"output_difficult" yaml:"output_difficult"`
	OutputTruncated bool     `json:"output_truncated" mapstructure:"output_truncated" yaml:"output_truncated"`

	// LabelMap maps each label to its position in Labels. Built by NewConfig.
	LabelMap map[string]int `json:"-" mapstructure:"-" yaml:"-"`
}

// NewConfig validates cfg, fills the default type string and builds the
// label map.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TypeString == "" {
		cfg.TypeString = TypeFloat
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.LabelMap = make(map[string]int, len(cfg.Labels))
	for i, label := range cfg.Labels {
		cfg.LabelMap[label] = i
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Height <= 0 || c.Width <= 0 {
		return fmt.Errorf("%w: height and width are required, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.MaxBBoxCount <= 0 {
		return fmt.Errorf("%w: max_bbox_count must be positive, got %d", ErrInvalidConfig, c.MaxBBoxCount)
	}
	if len(c.Labels) == 0 {
		return fmt.Errorf("%w: labels are required", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Labels))
	for _, label := range c.Labels {
		if label == "" {
			return fmt.Errorf("%w: empty label", ErrInvalidConfig)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidConfig, label)
		}
		seen[label] = struct{}{}
	}

	switch c.TypeString {
	case TypeFloat, TypeInt32:
	default:
		return fmt.Errorf("%w: unsupported type_string %q", ErrInvalidConfig, c.TypeString)
	}

	return nil
}

// BufferSizes returns the byte size of every destination the loader writes,
// in order: coordinates, labels, count, then the optional flag buffers.
func (c *Config) BufferSizes() []int {
	sizes := []int{
		c.MaxBBoxCount * 4 * elementSize,
		c.MaxBBoxCount * elementSize,
		elementSize,
	}
	if c.OutputDifficult {
		sizes = append(sizes, c.MaxBBoxCount)
	}
	if c.OutputTruncated {
		sizes = append(sizes, c.MaxBBoxCount)
	}
	return sizes
}
