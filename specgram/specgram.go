package specgram

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-loader/algorithms/common"
	"github.com/RyanBlaney/sonido-loader/algorithms/spectral"
	"github.com/RyanBlaney/sonido-loader/algorithms/windowing"
	"github.com/RyanBlaney/sonido-loader/logging"
	"github.com/RyanBlaney/sonido-loader/transcode"
)

// maxBytesPerSample sizes the scratch arena for the widest supported sample
const maxBytesPerSample = 4

// logFloor replaces zero filterbank energies before taking the log
const logFloor = 1e-10

// Specgram turns mono 16-bit PCM into a Height x Width 8-bit feature image.
// It owns a scratch arena and a random source, so one instance must not be
// used by concurrent Generate calls.
type Specgram struct {
	cfg           Config
	numFreqs      int
	maxSignalSize int

	scratch []byte // Width * WindowSize * maxBytesPerSample
	window  *windowing.Window
	fbank   *mat.Dense // NumFilts x numFreqs
	dct     *spectral.DCT
	fft     *spectral.FFT

	scaleBy  float64
	scaleMin float64
	scaleMax float64
	rng      *rand.Rand

	logger logging.Logger
}

// New validates cfg and precomputes the window, filterbank and DCT.
// id seeds the time-scale augmentation so each worker draws its own sequence.
func New(cfg Config, id int64) (*Specgram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Specgram{
		cfg:           cfg,
		numFreqs:      cfg.NumFreqs(),
		maxSignalSize: cfg.MaxSignalSize(),
		scratch:       make([]byte, cfg.Width*cfg.WindowSize*maxBytesPerSample),
		fft:           spectral.NewFFT(),
		scaleBy:       cfg.RandomScalePercent / 100.0,
		rng:           rand.New(rand.NewPCG(uint64(id), 0x5eed)),
		logger: logging.WithFields(logging.Fields{
			"component": "specgram",
			"feature":   cfg.Feature.String(),
		}),
	}
	s.scaleMin = 1.0 - s.scaleBy
	s.scaleMax = 1.0 + s.scaleBy

	if cfg.Window != windowing.None {
		w, err := windowing.New(cfg.Window, cfg.WindowSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.window = w
	}

	if cfg.Feature != Spectrogram {
		s.fbank = spectral.MelFilterbank(cfg.NumFilts, cfg.WindowSize, float64(cfg.SamplingFreq))
	}

	if cfg.Feature == MFCC {
		dct, err := spectral.NewDCT(evenCeil(cfg.NumFilts))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.dct = dct
	}

	return s, nil
}

// Config returns the configuration the instance was built with
func (s *Specgram) Config() Config {
	return s.cfg
}

// Generate writes the feature image of raw into dst (row major, Height rows
// of Width bytes) and returns the percentage of columns holding signal.
func (s *Specgram) Generate(raw transcode.RawMedia, dst []byte) (int, error) {
	if raw.Channels() != 1 {
		return 0, fmt.Errorf("%w: got %d channels", ErrNotMono, raw.Channels())
	}
	if raw.BytesPerSample() != 2 {
		return 0, fmt.Errorf("%w: got %d bytes per sample", ErrSampleFormat, raw.BytesPerSample())
	}
	if len(dst) != s.cfg.BufferSize() {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrBufferSize, len(dst), s.cfg.BufferSize())
	}

	numWindows, err := s.stridedSignal(raw)
	if err != nil {
		return 0, err
	}

	mag := s.magnitude(s.frames(numWindows))

	features := mag
	if s.cfg.Feature != Spectrogram {
		features, err = s.extractFeatures(mag)
		if err != nil {
			return 0, err
		}
	}

	feats := rotate(features)
	rows, cols := feats.Dims()
	if rows > s.cfg.Height {
		return 0, fmt.Errorf("%w: %d rows, height %d", ErrTooManyRows, rows, s.cfg.Height)
	}

	// Zero the padding first, then drop the normalized block into the top left.
	clear(dst)
	if err := common.MinMaxToUint8(feats, dst, s.cfg.Width); err != nil {
		return 0, err
	}

	s.randomize(dst)

	return cols * 100 / s.cfg.Width, nil
}

// stridedSignal copies windows of WindowSize samples taken every Stride
// samples into the scratch arena and returns how many were copied. Clips
// longer than the configured duration keep their leading samples.
func (s *Specgram) stridedSignal(raw transcode.RawMedia) (int, error) {
	numSamples := min(raw.NumSamples(), s.maxSignalSize)
	if numSamples < s.cfg.WindowSize {
		return 0, fmt.Errorf("%w: %d samples, window %d", ErrSignalTooShort, numSamples, s.cfg.WindowSize)
	}

	count := (numSamples-s.cfg.WindowSize)/s.cfg.Stride + 1
	if count > s.cfg.Width {
		return 0, fmt.Errorf("%w: %d windows, width %d", ErrTooManyWindows, count, s.cfg.Width)
	}

	bps := raw.BytesPerSample()
	windowBytes := s.cfg.WindowSize * bps
	strideBytes := s.cfg.Stride * bps

	src := raw.Buf(0)
	for i := 0; i < count; i++ {
		copy(s.scratch[i*windowBytes:(i+1)*windowBytes], src[i*strideBytes:i*strideBytes+windowBytes])
	}

	s.logger.Debug("Extracted strided windows", logging.Fields{
		"samples": numSamples,
		"windows": count,
	})

	return count, nil
}

// frames converts the first count windows of the scratch arena to floats
// and applies the window function.
func (s *Specgram) frames(count int) *mat.Dense {
	size := s.cfg.WindowSize
	out := mat.NewDense(count, size, nil)

	row := make([]float64, size)
	for i := 0; i < count; i++ {
		base := i * size * 2
		for j := range row {
			row[j] = float64(int16(binary.LittleEndian.Uint16(s.scratch[base+2*j:])))
		}
		if s.window != nil {
			// lengths always match, the window was built for WindowSize
			_ = s.window.ApplyInPlace(row)
		}
		out.SetRow(i, row)
	}

	return out
}

// magnitude keeps |DFT| of the first WindowSize/2+1 bins of every frame
func (s *Specgram) magnitude(frames *mat.Dense) *mat.Dense {
	count, _ := frames.Dims()
	mag := mat.NewDense(count, s.numFreqs, nil)

	row := make([]float64, s.numFreqs)
	for i := 0; i < count; i++ {
		s.fft.Magnitude(frames.RawRowView(i), row)
		mag.SetRow(i, row)
	}

	return mag
}

// extractFeatures projects the power spectrum onto the mel filterbank and
// takes the log; for MFCC it additionally keeps the leading DCT coefficients.
func (s *Specgram) extractFeatures(mag *mat.Dense) (*mat.Dense, error) {
	power := mat.DenseCopyOf(mag)
	invSize := 1.0 / float64(s.cfg.WindowSize)
	power.Apply(func(_, _ int, v float64) float64 {
		return v * v * invSize
	}, power)

	cepsgram := spectral.ApplyFilterBank(power, s.fbank)
	cepsgram.Apply(func(_, _ int, v float64) float64 {
		return math.Log(math.Max(v, logFloor))
	}, cepsgram)

	if s.cfg.Feature == MFSC {
		return cepsgram, nil
	}

	rows, cols := cepsgram.Dims()
	padded := mat.NewDense(evenCeil(rows), evenCeil(cols), nil)
	padded.Slice(0, rows, 0, cols).(*mat.Dense).Copy(cepsgram)

	transformed, err := s.dct.TransformRows(padded)
	if err != nil {
		return nil, err
	}

	return mat.DenseCopyOf(transformed.Slice(0, rows, 0, s.cfg.NumCepstra)), nil
}

// randomize stretches or squeezes the time axis by a factor drawn from
// [1-p, 1+p]; a zero percentage leaves the image untouched.
func (s *Specgram) randomize(img []byte) {
	if s.scaleBy <= 0 {
		return
	}
	fx := s.scaleMin + s.rng.Float64()*(s.scaleMax-s.scaleMin)
	s.resize(img, fx)
}

// resize rescales the columns of img by fx and crops or zero pads the
// result back to Width.
func (s *Specgram) resize(img []byte, fx float64) {
	height, width := s.cfg.Height, s.cfg.Width

	scaled := common.ResizeColumns(common.Uint8ToDense(img, height, width), fx)
	_, scaledCols := scaled.Dims()

	keep := min(scaledCols, width)
	for r := 0; r < height; r++ {
		row := img[r*width : (r+1)*width]
		for c := 0; c < keep; c++ {
			row[c] = common.SaturateUint8(scaled.At(r, c))
		}
		clear(row[keep:])
	}
}

// rotate turns a time x frequency matrix into frequency x time with the
// lowest frequency on the bottom row.
func rotate(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(cols, rows, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(cols-1-c, r, m.At(r, c))
		}
	}
	return out
}

func evenCeil(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}
