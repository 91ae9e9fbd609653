// Package audio wires WAV decoding and the spectrogram engine into the
// extract/transform/load contract.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-loader/etl"
	"github.com/RyanBlaney/sonido-loader/specgram"
	"github.com/RyanBlaney/sonido-loader/transcode"
)

var (
	// ErrSampleRate is returned for clips recorded at a rate other than the configured one
	ErrSampleRate = errors.New("sample rate mismatch")
	// ErrNoFeatureMap is returned when a clip reaches the loader without a feature image
	ErrNoFeatureMap = errors.New("audio has not been transformed")
)

// Decoded is one clip. Image and Percent are set by the transformer.
type Decoded struct {
	Media   *transcode.PCM16
	Image   []byte
	Percent int
}

// Extractor decodes 16-bit mono WAV records
type Extractor struct {
	sampleRate int
}

// NewExtractor rejects clips whose rate differs from sampleRate; zero
// accepts any rate.
func NewExtractor(sampleRate int) *Extractor {
	return &Extractor{sampleRate: sampleRate}
}

// Extract decodes a WAV record into mono PCM
func (e *Extractor) Extract(data []byte) (*Decoded, error) {
	pcm, err := transcode.DecodeWAV(data)
	if err != nil {
		return nil, err
	}
	if pcm.Channels() != 1 {
		return nil, fmt.Errorf("%w: got %d channels", specgram.ErrNotMono, pcm.Channels())
	}
	if e.sampleRate != 0 && pcm.SampleRate() != e.sampleRate {
		return nil, fmt.Errorf("%w: got %d Hz, want %d Hz", ErrSampleRate, pcm.SampleRate(), e.sampleRate)
	}
	return &Decoded{Media: pcm}, nil
}

// Transformer renders the feature image of a clip. It owns one Specgram, so
// one Transformer serves one worker.
type Transformer struct {
	sg *specgram.Specgram
}

func NewTransformer(sg *specgram.Specgram) *Transformer {
	return &Transformer{sg: sg}
}

// Transform generates the feature image and valid column percentage of d
func (t *Transformer) Transform(_ etl.NoParams, d *Decoded) (*Decoded, error) {
	img := make([]byte, t.sg.Config().BufferSize())
	pct, err := t.sg.Generate(d.Media, img)
	if err != nil {
		return nil, err
	}
	return &Decoded{Media: d.Media, Image: img, Percent: pct}, nil
}

// Loader copies the feature image to dst[0] and the valid column percentage
// to dst[1] as a little endian int32.
type Loader struct {
	sizes []int
}

func NewLoader(cfg specgram.Config) *Loader {
	return &Loader{sizes: []int{cfg.BufferSize(), 4}}
}

// BufferSizes returns the byte size of each destination
func (l *Loader) BufferSizes() []int {
	return l.sizes
}

// Load writes the feature image and percentage of d into dst
func (l *Loader) Load(dst [][]byte, d *Decoded) error {
	if d.Image == nil {
		return ErrNoFeatureMap
	}
	if err := etl.CheckBuffers(dst, l.sizes); err != nil {
		return err
	}
	copy(dst[0][:l.sizes[0]], d.Image)
	binary.LittleEndian.PutUint32(dst[1], uint32(int32(d.Percent)))
	return nil
}

// NewPipeline assembles the three stages around sg
func NewPipeline(sg *specgram.Specgram) *etl.Pipeline[*Decoded, etl.NoParams] {
	cfg := sg.Config()
	return &etl.Pipeline[*Decoded, etl.NoParams]{
		Extractor:   NewExtractor(cfg.SamplingFreq),
		Transformer: NewTransformer(sg),
		Loader:      NewLoader(cfg),
	}
}
