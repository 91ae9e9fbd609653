package specgram

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-loader/algorithms/windowing"
)

// Feature selects the representation written by Generate
type Feature int

const (
	// Spectrogram is the raw magnitude spectrogram
	Spectrogram Feature = iota
	// MFSC is the log mel-filtered spectrogram
	MFSC
	// MFCC is the mel-frequency cepstrum
	MFCC
)

func (f Feature) String() string {
	switch f {
	case Spectrogram:
		return "specgram"
	case MFSC:
		return "mfsc"
	case MFCC:
		return "mfcc"
	default:
		return fmt.Sprintf("Feature(%d)", int(f))
	}
}

// ParseFeature converts a config name to a Feature
func ParseFeature(name string) (Feature, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "specgram", "spectrogram":
		return Spectrogram, nil
	case "mfsc":
		return MFSC, nil
	case "mfcc":
		return MFCC, nil
	default:
		return Spectrogram, fmt.Errorf("%w: unknown feature type %q", ErrInvalidConfig, name)
	}
}

// Config describes the feature image produced for each clip
type Config struct {
	Feature            Feature        `json:"feature"`
	ClipDuration       int            `json:"clip_duration"` // milliseconds
	WindowSize         int            `json:"window_size"`   // samples per frame, also the FFT size
	Stride             int            `json:"stride"`        // samples between frame starts
	Width              int            `json:"width"`         // time steps in the output image
	Height             int            `json:"height"`        // frequency rows in the output image
	SamplingFreq       int            `json:"sampling_freq"`
	NumFilts           int            `json:"num_filts"`
	NumCepstra         int            `json:"num_cepstra"`
	Window             windowing.Kind `json:"window"`
	RandomScalePercent float64        `json:"random_scale_percent"`
}

// MaxSignalSize is the number of samples in a full-length clip
func (c Config) MaxSignalSize() int {
	return c.ClipDuration * c.SamplingFreq / 1000
}

// NumFreqs is the number of non-negative frequency bins per frame
func (c Config) NumFreqs() int {
	return c.WindowSize/2 + 1
}

// FeatureRows is the height of the feature block before padding
func (c Config) FeatureRows() int {
	switch c.Feature {
	case MFSC:
		return c.NumFilts
	case MFCC:
		return c.NumCepstra
	default:
		return c.NumFreqs()
	}
}

// BufferSize is the number of bytes Generate writes
func (c Config) BufferSize() int {
	return c.Width * c.Height
}

// Validate checks the relationships between the fields
func (c Config) Validate() error {
	if c.Stride <= 0 {
		return fmt.Errorf("%w: stride must be positive, got %d", ErrInvalidConfig, c.Stride)
	}
	if c.WindowSize < 2 {
		return fmt.Errorf("%w: window size must be at least 2, got %d", ErrInvalidConfig, c.WindowSize)
	}
	if c.SamplingFreq <= 0 || c.ClipDuration <= 0 {
		return fmt.Errorf("%w: sampling frequency and clip duration must be positive", ErrInvalidConfig)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if !c.Window.Valid() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, windowing.ErrUnsupportedWindow, c.Window)
	}
	if c.RandomScalePercent < 0 || c.RandomScalePercent >= 100 {
		return fmt.Errorf("%w: random scale percent must be in [0, 100), got %g", ErrInvalidConfig, c.RandomScalePercent)
	}

	switch c.Feature {
	case Spectrogram:
	case MFSC, MFCC:
		if c.NumFilts <= 0 {
			return fmt.Errorf("%w: %s needs a positive filter count", ErrInvalidConfig, c.Feature)
		}
		if c.Feature == MFCC && (c.NumCepstra <= 0 || c.NumCepstra > c.NumFilts) {
			return fmt.Errorf("%w: num_cepstra must be in [1, %d], got %d", ErrInvalidConfig, c.NumFilts, c.NumCepstra)
		}
	default:
		return fmt.Errorf("%w: unknown feature %s", ErrInvalidConfig, c.Feature)
	}

	maxSamples := c.MaxSignalSize()
	if maxSamples < c.WindowSize {
		return fmt.Errorf("%w: clip of %d samples is shorter than one window (%d)", ErrInvalidConfig, maxSamples, c.WindowSize)
	}
	if want := (maxSamples-c.WindowSize)/c.Stride + 1; c.Width != want {
		return fmt.Errorf("%w: width %d does not match clip duration, sampling rate, window size and stride (expected %d)",
			ErrInvalidConfig, c.Width, want)
	}

	return nil
}

// WidthFor returns the width matching the other timing fields
func WidthFor(clipDuration, samplingFreq, windowSize, stride int) int {
	return (clipDuration*samplingFreq/1000-windowSize)/stride + 1
}
