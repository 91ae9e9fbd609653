package windowing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedWindow is returned for window selectors outside the table
var ErrUnsupportedWindow = errors.New("unsupported window function")

// Kind selects a window function. The numeric values match the selector
// used in audio configuration files.
type Kind int

const (
	None Kind = iota
	Hann
	Blackman
	Hamming
	Bartlett
)

// generators maps each Kind to the function producing its weights.
// Every generator returns steps+1 weights for indices 0..steps.
var generators = map[Kind]func(steps int) []float64{
	None:     rectangular,
	Hann:     hann,
	Blackman: blackman,
	Hamming:  hamming,
	Bartlett: bartlett,
}

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Hann:
		return "hann"
	case Blackman:
		return "blackman"
	case Hamming:
		return "hamming"
	case Bartlett:
		return "bartlett"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Valid reports whether the kind has a generator
func (k Kind) Valid() bool {
	_, ok := generators[k]
	return ok
}

// ParseKind converts a config name to a Kind
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "rectangular":
		return None, nil
	case "hann", "hanning":
		return Hann, nil
	case "blackman":
		return Blackman, nil
	case "hamming":
		return Hamming, nil
	case "bartlett", "triangular":
		return Bartlett, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnsupportedWindow, name)
	}
}

// Generate returns the weights of window kind over steps+1 points
func Generate(kind Kind, steps int) ([]float64, error) {
	gen, ok := generators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedWindow, kind)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("window steps must be positive, got %d", steps)
	}
	return gen(steps), nil
}

// Window holds precomputed weights for frames of a fixed size
type Window struct {
	kind         Kind
	coefficients []float64
}

// New creates a window covering size samples (steps = size-1)
func New(kind Kind, size int) (*Window, error) {
	coeffs, err := Generate(kind, size-1)
	if err != nil {
		return nil, err
	}
	return &Window{kind: kind, coefficients: coeffs}, nil
}

// ApplyInPlace multiplies signal by the window weights
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	if w.kind == None {
		return nil
	}
	for i := range signal {
		signal[i] *= w.coefficients[i]
	}

	return nil
}

// GetSize returns the window size
func (w *Window) GetSize() int {
	return len(w.coefficients)
}

// GetType returns the window type
func (w *Window) GetType() string {
	return w.kind.String()
}
