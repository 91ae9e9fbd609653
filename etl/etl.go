// Package etl defines the extract/transform/load contract every media type
// implements: decode raw record bytes, apply sampled augmentation parameters,
// then serialize into caller-owned destination buffers.
package etl

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-loader/loader"
)

var (
	// ErrRecord tags a record whose bytes could not be read by the block loader
	ErrRecord = errors.New("record unreadable")
	// ErrDecode tags a failure in any of the three pipeline stages
	ErrDecode = errors.New("decode failed")
	// ErrBufferTooSmall is returned by loaders when a destination is smaller
	// than its declared size
	ErrBufferTooSmall = errors.New("destination buffer too small")
)

// Extractor decodes the raw bytes of one record
type Extractor[D any] interface {
	Extract(data []byte) (D, error)
}

// Transformer applies previously sampled parameters to a decoded object. It
// never looks at the raw bytes.
type Transformer[D, P any] interface {
	Transform(params P, decoded D) (D, error)
}

// Loader writes a transformed object into pre-sized destination buffers. It
// must never write past a destination and truncates excess items in order.
type Loader[D any] interface {
	Load(dst [][]byte, transformed D) error
}

// NoParams is the parameter type of media that take no augmentation parameters
type NoParams struct{}

// Pipeline bundles the three roles of one media type
type Pipeline[D, P any] struct {
	Extractor   Extractor[D]
	Transformer Transformer[D, P]
	Loader      Loader[D]
}

// Process runs one record through extract, transform and load. A record the
// block loader failed to read is reported without decoding.
func (p *Pipeline[D, P]) Process(rec loader.Record, params P, dst [][]byte) error {
	if rec.Err != nil {
		return fmt.Errorf("%w: %w", ErrRecord, rec.Err)
	}

	decoded, err := p.Extractor.Extract(rec.Data)
	if err != nil {
		return fmt.Errorf("%w: extract: %w", ErrDecode, err)
	}

	transformed, err := p.Transformer.Transform(params, decoded)
	if err != nil {
		return fmt.Errorf("%w: transform: %w", ErrDecode, err)
	}

	if err := p.Loader.Load(dst, transformed); err != nil {
		return fmt.Errorf("%w: load: %w", ErrDecode, err)
	}

	return nil
}

// ProcessBlock runs every record of buf in order. paramsFn and dstFn supply
// the parameters and destinations of record i. The result holds one error
// per record, nil where the record succeeded; a failure never stops the block.
func (p *Pipeline[D, P]) ProcessBlock(buf *loader.BufferIn, paramsFn func(i int) P, dstFn func(i int) [][]byte) []error {
	errs := make([]error, buf.Len())
	for i := range errs {
		errs[i] = p.Process(buf.Record(i), paramsFn(i), dstFn(i))
	}
	return errs
}

// CheckBuffers verifies each destination holds at least the declared size
func CheckBuffers(dst [][]byte, sizes []int) error {
	if len(dst) < len(sizes) {
		return fmt.Errorf("%w: got %d destinations, want %d", ErrBufferTooSmall, len(dst), len(sizes))
	}
	for i, size := range sizes {
		if len(dst[i]) < size {
			return fmt.Errorf("%w: destination %d holds %d bytes, want %d", ErrBufferTooSmall, i, len(dst[i]), size)
		}
	}
	return nil
}

// AllocBuffers returns zeroed destinations of the given sizes
func AllocBuffers(sizes []int) [][]byte {
	dst := make([][]byte, len(sizes))
	for i, size := range sizes {
		dst[i] = make([]byte, size)
	}
	return dst
}
