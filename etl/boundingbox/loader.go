package boundingbox

import (
	"encoding/binary"
	"math"

	"github.com/RyanBlaney/sonido-loader/etl"
	"github.com/RyanBlaney/sonido-loader/logging"
)

// elementSize is the byte width of coordinates, labels and the count
const elementSize = 4

// Loader serializes boxes into fixed-size little endian buffers
type Loader struct {
	cfg    *Config
	sizes  []int
	logger logging.Logger
}

// NewLoader creates a loader writing the buffers described by cfg
func NewLoader(cfg *Config) *Loader {
	return &Loader{
		cfg:   cfg,
		sizes: cfg.BufferSizes(),
		logger: logging.WithFields(logging.Fields{
			"component": "boundingbox_loader",
		}),
	}
}

// BufferSizes returns the byte size of each destination
func (l *Loader) BufferSizes() []int {
	return l.sizes
}

// Load writes at most MaxBBoxCount boxes, in order, and the number written.
// Unused slots are zeroed.
func (l *Loader) Load(dst [][]byte, d *Decoded) error {
	if err := etl.CheckBuffers(dst, l.sizes); err != nil {
		return err
	}
	for i, size := range l.sizes {
		clear(dst[i][:size])
	}

	count := min(len(d.Boxes), l.cfg.MaxBBoxCount)
	if count < len(d.Boxes) {
		l.logger.Debug("Dropping boxes over capacity", logging.Fields{
			"boxes":    len(d.Boxes),
			"capacity": l.cfg.MaxBBoxCount,
		})
	}

	coords, labels := dst[0], dst[1]
	for i, b := range d.Boxes[:count] {
		for j, v := range [4]float64{b.Xmin, b.Ymin, b.Xmax, b.Ymax} {
			l.putCoord(coords[(4*i+j)*elementSize:], v)
		}
		binary.LittleEndian.PutUint32(labels[i*elementSize:], uint32(int32(b.Label)))
	}
	binary.LittleEndian.PutUint32(dst[2], uint32(int32(count)))

	next := 3
	if l.cfg.OutputDifficult {
		writeFlags(dst[next], d.Boxes[:count], func(b Box) bool { return b.Difficult })
		next++
	}
	if l.cfg.OutputTruncated {
		writeFlags(dst[next], d.Boxes[:count], func(b Box) bool { return b.Truncated })
	}

	return nil
}

func (l *Loader) putCoord(b []byte, v float64) {
	if l.cfg.TypeString == TypeInt32 {
		binary.LittleEndian.PutUint32(b, uint32(int32(math.Round(v))))
		return
	}
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
}

func writeFlags(dst []byte, boxes []Box, flag func(Box) bool) {
	for i, b := range boxes {
		if flag(b) {
			dst[i] = 1
		}
	}
}
