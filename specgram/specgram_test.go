package specgram

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-loader/algorithms/windowing"
	"github.com/RyanBlaney/sonido-loader/transcode"
)

const (
	testRate       = 16000
	testWindow     = 256
	testStride     = 128
	testDurationMs = 1000
)

func testConfig(feature Feature) Config {
	cfg := Config{
		Feature:      feature,
		ClipDuration: testDurationMs,
		WindowSize:   testWindow,
		Stride:       testStride,
		Width:        WidthFor(testDurationMs, testRate, testWindow, testStride),
		Height:       testWindow/2 + 1,
		SamplingFreq: testRate,
		NumFilts:     40,
		NumCepstra:   13,
		Window:       windowing.Hann,
	}
	return cfg
}

func tone(freq float64, samples int) *transcode.PCM16 {
	signal := make([]float64, samples)
	for i := range signal {
		signal[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return transcode.NewPCM16FromFloat(signal, testRate)
}

func noise(seed uint64, samples int) *transcode.PCM16 {
	r := rand.New(rand.NewPCG(seed, seed))
	signal := make([]float64, samples)
	for i := range signal {
		signal[i] = r.Float64()*1.2 - 0.6
	}
	return transcode.NewPCM16FromFloat(signal, testRate)
}

func TestConfigWidth(t *testing.T) {
	cfg := testConfig(Spectrogram)
	assert.Equal(t, 124, cfg.Width)
	assert.Equal(t, 16000, cfg.MaxSignalSize())
	require.NoError(t, cfg.Validate())
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero stride", func(c *Config) { c.Stride = 0 }},
		{"width mismatch", func(c *Config) { c.Width++ }},
		{"negative scale", func(c *Config) { c.RandomScalePercent = -1 }},
		{"scale too large", func(c *Config) { c.RandomScalePercent = 100 }},
		{"bad window", func(c *Config) { c.Window = windowing.Kind(9) }},
		{"cepstra above filters", func(c *Config) { c.Feature = MFCC; c.NumCepstra = 41 }},
		{"no filters", func(c *Config) { c.Feature = MFSC; c.NumFilts = 0 }},
		{"clip shorter than window", func(c *Config) { c.ClipDuration = 10 }},
		{"zero height", func(c *Config) { c.Height = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(Spectrogram)
			tt.mutate(&cfg)
			_, err := New(cfg, 0)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("MFCC")
	require.NoError(t, err)
	assert.Equal(t, MFCC, f)

	for _, feature := range []Feature{Spectrogram, MFSC, MFCC} {
		parsed, err := ParseFeature(feature.String())
		require.NoError(t, err)
		assert.Equal(t, feature, parsed)
	}
	assert.Equal(t, "specgram", Spectrogram.String())

	_, err = ParseFeature("chroma")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPureTonePeakBin(t *testing.T) {
	s, err := New(testConfig(Spectrogram), 0)
	require.NoError(t, err)

	for _, freq := range []float64{250, 1000, 2500, 3030, 5000, 7000, 7900} {
		n, err := s.stridedSignal(tone(freq, testRate))
		require.NoError(t, err)

		mag := s.magnitude(s.frames(n))
		want := int(math.Round(freq * testWindow / testRate))
		for frame := 0; frame < n; frame += 17 {
			assert.Equal(t, want, floats.MaxIdx(mag.RawRowView(frame)), "freq %g frame %d", freq, frame)
		}
	}
}

func TestGenerateToneImage(t *testing.T) {
	cfg := testConfig(Spectrogram)
	s, err := New(cfg, 0)
	require.NoError(t, err)

	dst := make([]byte, cfg.BufferSize())
	pct, err := s.Generate(tone(1000, testRate), dst)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	// bin 16 sits 16 rows above the bottom row
	row := cfg.Height - 1 - 16
	for c := 0; c < cfg.Width; c++ {
		assert.Equal(t, byte(255), maxInColumn(dst, cfg, c), "column %d", c)
		assert.Greater(t, dst[row*cfg.Width+c], byte(200), "column %d", c)
	}
}

func maxInColumn(img []byte, cfg Config, col int) byte {
	var best byte
	for r := 0; r < cfg.Height; r++ {
		best = max(best, img[r*cfg.Width+col])
	}
	return best
}

func TestGenerateIdempotent(t *testing.T) {
	for _, feature := range []Feature{Spectrogram, MFSC, MFCC} {
		t.Run(feature.String(), func(t *testing.T) {
			cfg := testConfig(feature)
			s, err := New(cfg, 1)
			require.NoError(t, err)

			clip := noise(3, testRate*3/4)
			first := make([]byte, cfg.BufferSize())
			second := make([]byte, cfg.BufferSize())

			_, err = s.Generate(clip, first)
			require.NoError(t, err)
			_, err = s.Generate(clip, second)
			require.NoError(t, err)

			assert.Equal(t, first, second)
		})
	}
}

func TestGeneratePaddingLaw(t *testing.T) {
	cfg := testConfig(MFSC)
	s, err := New(cfg, 0)
	require.NoError(t, err)

	dst := make([]byte, cfg.BufferSize())
	for i := range dst {
		dst[i] = 0xAA
	}

	pct, err := s.Generate(noise(7, testRate/2), dst)
	require.NoError(t, err)

	windows := (testRate/2-testWindow)/testStride + 1
	assert.Equal(t, 61, windows)
	assert.Equal(t, 100*windows/cfg.Width, pct)

	for r := 0; r < cfg.Height; r++ {
		for c := windows; c < cfg.Width; c++ {
			require.Zero(t, dst[r*cfg.Width+c], "row %d column %d", r, c)
		}
	}
	// rows below the 40 filter rows are padding too
	for r := cfg.NumFilts; r < cfg.Height; r++ {
		for c := 0; c < cfg.Width; c++ {
			require.Zero(t, dst[r*cfg.Width+c])
		}
	}
}

func TestGenerateMFCCShape(t *testing.T) {
	cfg := testConfig(MFCC)
	cfg.Height = cfg.NumCepstra
	s, err := New(cfg, 0)
	require.NoError(t, err)

	dst := make([]byte, cfg.BufferSize())
	pct, err := s.Generate(noise(11, testRate), dst)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	lo, hi := byte(255), byte(0)
	for _, v := range dst {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	assert.Equal(t, byte(0), lo)
	assert.Equal(t, byte(255), hi)
}

func TestGenerateTruncatesLongClips(t *testing.T) {
	cfg := testConfig(Spectrogram)
	s, err := New(cfg, 0)
	require.NoError(t, err)

	dst := make([]byte, cfg.BufferSize())
	pct, err := s.Generate(noise(5, 2*testRate), dst)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)
}

func TestGenerateRuntimeErrors(t *testing.T) {
	cfg := testConfig(Spectrogram)
	s, err := New(cfg, 0)
	require.NoError(t, err)

	dst := make([]byte, cfg.BufferSize())

	_, err = s.Generate(noise(1, testWindow-1), dst)
	assert.ErrorIs(t, err, ErrSignalTooShort)

	stereo := transcode.NewPCM16FromSamples(make([]int16, 2*testRate), 2, testRate)
	_, err = s.Generate(stereo, dst)
	assert.ErrorIs(t, err, ErrNotMono)

	_, err = s.Generate(noise(1, testRate), dst[1:])
	assert.ErrorIs(t, err, ErrBufferSize)

	short := testConfig(Spectrogram)
	short.Height = 64
	s, err = New(short, 0)
	require.NoError(t, err)
	_, err = s.Generate(noise(1, testRate), make([]byte, short.BufferSize()))
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestStridedSignalTooManyWindows(t *testing.T) {
	cfg := testConfig(Spectrogram)
	s, err := New(cfg, 0)
	require.NoError(t, err)

	// a narrower width than the clip needs can only come from tampering
	s.cfg.Width = 10
	_, err = s.stridedSignal(noise(1, testRate))
	assert.ErrorIs(t, err, ErrTooManyWindows)
}

func TestRandomScaleKeepsShape(t *testing.T) {
	cfg := testConfig(MFSC)
	cfg.RandomScalePercent = 20

	a, err := New(cfg, 42)
	require.NoError(t, err)
	b, err := New(cfg, 42)
	require.NoError(t, err)

	clip := noise(9, testRate/2)
	outA := make([]byte, cfg.BufferSize())
	outB := make([]byte, cfg.BufferSize())

	for i := 0; i < 3; i++ {
		pctA, err := a.Generate(clip, outA)
		require.NoError(t, err)
		pctB, err := b.Generate(clip, outB)
		require.NoError(t, err)

		// same seed, same sequence of scale factors
		assert.Equal(t, outA, outB)
		assert.Equal(t, pctA, pctB)
		assert.Len(t, outA, cfg.Width*cfg.Height)

		// even the widest stretch (1.2 x 61 columns) stays clear of the tail
		for r := 0; r < cfg.Height; r++ {
			for c := 80; c < cfg.Width; c++ {
				require.Zero(t, outA[r*cfg.Width+c])
			}
		}
	}
}

func TestResizeCropsAndPads(t *testing.T) {
	cfg := testConfig(Spectrogram)
	s, err := New(cfg, 0)
	require.NoError(t, err)

	img := make([]byte, cfg.BufferSize())
	for r := 0; r < cfg.Height; r++ {
		for c := 0; c < cfg.Width; c++ {
			img[r*cfg.Width+c] = 100
		}
	}

	s.resize(img, 0.5)
	assert.Equal(t, byte(100), img[0])
	assert.Equal(t, byte(100), img[cfg.Width/2-1])
	assert.Zero(t, img[cfg.Width/2])
	assert.Zero(t, img[cfg.Width-1])

	for i := range img {
		img[i] = 100
	}
	s.resize(img, 1.5)
	for _, v := range img {
		require.Equal(t, byte(100), v)
	}
}
