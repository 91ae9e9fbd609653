package transcode

import (
	"encoding/binary"
	"math"
)

// RawMedia is decoded PCM exposed as raw little-endian bytes
type RawMedia interface {
	// NumSamples is the number of samples per channel
	NumSamples() int
	BytesPerSample() int
	Channels() int
	// Buf returns the raw bytes starting at sample offset
	Buf(offset int) []byte
}

// PCM16 holds interleaved signed 16-bit samples
type PCM16 struct {
	samples    []int16
	raw        []byte
	channels   int
	sampleRate int
}

// NewPCM16FromSamples wraps interleaved samples
func NewPCM16FromSamples(samples []int16, channels, sampleRate int) *PCM16 {
	raw := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}

	return &PCM16{
		samples:    samples,
		raw:        raw,
		channels:   max(channels, 1),
		sampleRate: sampleRate,
	}
}

// NewPCM16FromFloat quantizes float samples in [-1, 1] to mono 16-bit PCM
func NewPCM16FromFloat(signal []float64, sampleRate int) *PCM16 {
	samples := make([]int16, len(signal))
	for i, v := range signal {
		v = math.Max(-1, math.Min(1, v))
		samples[i] = int16(math.Round(v * math.MaxInt16))
	}
	return NewPCM16FromSamples(samples, 1, sampleRate)
}

func (p *PCM16) NumSamples() int     { return len(p.samples) / p.channels }
func (p *PCM16) BytesPerSample() int { return 2 }
func (p *PCM16) Channels() int       { return p.channels }
func (p *PCM16) SampleRate() int     { return p.sampleRate }

func (p *PCM16) Buf(offset int) []byte {
	return p.raw[offset*2*p.channels:]
}

// Samples returns the interleaved samples
func (p *PCM16) Samples() []int16 {
	return p.samples
}
