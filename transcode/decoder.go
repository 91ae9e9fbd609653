package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-loader/logging"
)

var (
	ErrNotWavFile        = errors.New("not a valid wav file")
	ErrUnsupportedFormat = errors.New("only 16-bit PCM wav is supported")
	ErrEmptyAudio        = errors.New("wav file holds no samples")
)

// DecodeWAV decodes a whole in-memory WAV file into 16-bit PCM
func DecodeWAV(data []byte) (*PCM16, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeWAV",
	})

	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, ErrNotWavFile
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}
	if d.BitDepth != 16 {
		return nil, fmt.Errorf("%w: got %d-bit", ErrUnsupportedFormat, d.BitDepth)
	}
	if len(buf.Data) == 0 {
		return nil, ErrEmptyAudio
	}

	channels := int(d.NumChans)
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	logger.Debug("Decoded wav", logging.Fields{
		"sample_rate": d.SampleRate,
		"channels":    channels,
		"samples":     len(samples) / channels,
	})

	return NewPCM16FromSamples(samples, channels, int(d.SampleRate)), nil
}

// EncodeWAV writes pcm as a 16-bit PCM WAV stream
func EncodeWAV(w io.WriteSeeker, pcm *PCM16) error {
	enc := wav.NewEncoder(w, pcm.SampleRate(), 16, pcm.Channels(), 1)

	data := make([]int, len(pcm.samples))
	for i, s := range pcm.samples {
		data[i] = int(s)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: pcm.Channels(),
			SampleRate:  pcm.SampleRate(),
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return enc.Close()
}
