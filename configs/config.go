package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-loader/algorithms/windowing"
	"github.com/RyanBlaney/sonido-loader/etl/boundingbox"
	"github.com/RyanBlaney/sonido-loader/etl/image"
	"github.com/RyanBlaney/sonido-loader/loader"
	"github.com/RyanBlaney/sonido-loader/specgram"
)

// EnvPrefix prefixes every environment override, e.g. SONIDO_LOADER_LOADER_BLOCK_SIZE
const EnvPrefix = "SONIDO_LOADER"

const (
	MediaAudio       = "audio"
	MediaBoundingBox = "boundingbox"
)

// Config represents the application configuration
type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	// Media selects the pipeline run on the first element of every record
	Media string `mapstructure:"media" yaml:"media"`

	Loader      LoaderConfig       `mapstructure:"loader" yaml:"loader"`
	Audio       AudioConfig        `mapstructure:"audio" yaml:"audio"`
	BoundingBox boundingbox.Config `mapstructure:"boundingbox" yaml:"boundingbox"`
	Image       ImageConfig        `mapstructure:"image" yaml:"image"`
}

// LoaderConfig contains block loader settings
type LoaderConfig struct {
	Manifest        string  `mapstructure:"manifest" yaml:"manifest"`
	BlockSize       int     `mapstructure:"block_size" yaml:"block_size"`
	SubsetFraction  float64 `mapstructure:"subset_fraction" yaml:"subset_fraction"`
	SubsetSeed      uint64  `mapstructure:"subset_seed" yaml:"subset_seed"`
	ReadConcurrency int     `mapstructure:"read_concurrency" yaml:"read_concurrency"`
}

// AudioConfig contains feature extraction settings. A zero width is derived
// from the timing fields.
type AudioConfig struct {
	Feature            string  `mapstructure:"feature" yaml:"feature"`
	ClipDuration       int     `mapstructure:"clip_duration" yaml:"clip_duration"`
	WindowSize         int     `mapstructure:"window_size" yaml:"window_size"`
	Stride             int     `mapstructure:"stride" yaml:"stride"`
	Width              int     `mapstructure:"width" yaml:"width"`
	Height             int     `mapstructure:"height" yaml:"height"`
	SamplingFreq       int     `mapstructure:"sampling_freq" yaml:"sampling_freq"`
	NumFilts           int     `mapstructure:"num_filts" yaml:"num_filts"`
	NumCepstra         int     `mapstructure:"num_cepstra" yaml:"num_cepstra"`
	Window             string  `mapstructure:"window" yaml:"window"`
	RandomScalePercent float64 `mapstructure:"random_scale_percent" yaml:"random_scale_percent"`
	Seed               int64   `mapstructure:"seed" yaml:"seed"`
}

// ImageConfig contains the augmentation applied to images and their boxes
type ImageConfig struct {
	ScaleMin   float64 `mapstructure:"scale_min" yaml:"scale_min"`
	CenterCrop bool    `mapstructure:"center_crop" yaml:"center_crop"`
	FlipEnable bool    `mapstructure:"flip_enable" yaml:"flip_enable"`
	Seed       uint64  `mapstructure:"seed" yaml:"seed"`
}

// New returns a viper instance with defaults and environment overrides applied
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadConfig decodes the configuration held by v
func LoadConfig(v *viper.Viper) (*Config, error) {
	config := &Config{}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// Validate checks the settings of the loader and of the selected media
func (c *Config) Validate() error {
	if c.Loader.BlockSize <= 0 {
		return fmt.Errorf("loader block size must be positive")
	}
	if c.Loader.SubsetFraction <= 0 || c.Loader.SubsetFraction > 1 {
		return fmt.Errorf("loader subset fraction must be in (0, 1]")
	}
	if c.Loader.ReadConcurrency <= 0 {
		return fmt.Errorf("loader read concurrency must be positive")
	}

	switch c.Media {
	case MediaAudio:
		_, err := c.SpecgramConfig()
		return err
	case MediaBoundingBox:
		if _, err := c.BoundingBoxConfig(); err != nil {
			return err
		}
		_, err := c.ImageConfig()
		return err
	default:
		return fmt.Errorf("unknown media %q, expected %s or %s", c.Media, MediaAudio, MediaBoundingBox)
	}
}

// SpecgramConfig converts the audio section into a validated specgram.Config
func (c *Config) SpecgramConfig() (specgram.Config, error) {
	a := c.Audio

	feature, err := specgram.ParseFeature(a.Feature)
	if err != nil {
		return specgram.Config{}, err
	}
	window, err := windowing.ParseKind(a.Window)
	if err != nil {
		return specgram.Config{}, fmt.Errorf("%w: %w", specgram.ErrInvalidConfig, err)
	}

	width := a.Width
	if width == 0 && a.Stride > 0 {
		width = specgram.WidthFor(a.ClipDuration, a.SamplingFreq, a.WindowSize, a.Stride)
	}

	cfg := specgram.Config{
		Feature:            feature,
		ClipDuration:       a.ClipDuration,
		WindowSize:         a.WindowSize,
		Stride:             a.Stride,
		Width:              width,
		Height:             a.Height,
		SamplingFreq:       a.SamplingFreq,
		NumFilts:           a.NumFilts,
		NumCepstra:         a.NumCepstra,
		Window:             window,
		RandomScalePercent: a.RandomScalePercent,
	}
	if cfg.Height == 0 {
		cfg.Height = cfg.FeatureRows()
	}

	if err := cfg.Validate(); err != nil {
		return specgram.Config{}, err
	}
	return cfg, nil
}

// BoundingBoxConfig validates the bounding box section and builds its label map
func (c *Config) BoundingBoxConfig() (*boundingbox.Config, error) {
	return boundingbox.NewConfig(c.BoundingBox)
}

// ImageConfig returns the augmentation ranges; the output size is the
// bounding box output size.
func (c *Config) ImageConfig() (image.Config, error) {
	cfg := image.Config{
		Height:     c.BoundingBox.Height,
		Width:      c.BoundingBox.Width,
		ScaleMin:   c.Image.ScaleMin,
		CenterCrop: c.Image.CenterCrop,
		FlipEnable: c.Image.FlipEnable,
	}
	if err := cfg.Validate(); err != nil {
		return image.Config{}, err
	}
	return cfg, nil
}

// LoaderOptions returns the block loader options of the loader section
func (c *Config) LoaderOptions() []loader.Option {
	return []loader.Option{
		loader.WithSubsetSeed(c.Loader.SubsetSeed),
		loader.WithReadConcurrency(c.Loader.ReadConcurrency),
	}
}
