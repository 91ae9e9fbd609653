package boundingbox

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-loader/etl"
	"github.com/RyanBlaney/sonido-loader/etl/image"
	"github.com/RyanBlaney/sonido-loader/loader"
)

const annotationJSON = `{
	"size": {"width": 200, "height": 100, "depth": 3},
	"object": [
		{"name": "dog", "bndbox": {"xmin": 10, "ymin": 20, "xmax": 60, "ymax": 80}, "difficult": true},
		{"name": "cat", "bndbox": {"xmin": 150, "ymin": 0, "xmax": 190, "ymax": 50}, "truncated": true}
	]
}`

func testConfig(t *testing.T, mutate func(*Config)) *Config {
	t.Helper()
	cfg := Config{
		Height:       100,
		Width:        200,
		MaxBBoxCount: 3,
		Labels:       []string{"cat", "dog", "bird"},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	return c
}

func readFloat(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
}

func readInt(b []byte, i int) int32 {
	return int32(binary.LittleEndian.Uint32(b[4*i:]))
}

func TestNewConfig(t *testing.T) {
	cfg := testConfig(t, nil)
	assert.Equal(t, TypeFloat, cfg.TypeString)
	assert.Equal(t, map[string]int{"cat": 0, "dog": 1, "bird": 2}, cfg.LabelMap)
	assert.Equal(t, []int{48, 12, 4}, cfg.BufferSizes())

	flags := testConfig(t, func(c *Config) { c.OutputDifficult = true; c.OutputTruncated = true })
	assert.Equal(t, []int{48, 12, 4, 3, 3}, flags.BufferSizes())
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no height", func(c *Config) { c.Height = 0 }},
		{"no max boxes", func(c *Config) { c.MaxBBoxCount = 0 }},
		{"no labels", func(c *Config) { c.Labels = nil }},
		{"empty label", func(c *Config) { c.Labels = []string{"a", ""} }},
		{"duplicate label", func(c *Config) { c.Labels = []string{"a", "b", "a"} }},
		{"bad type", func(c *Config) { c.TypeString = "double" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Height: 1, Width: 1, MaxBBoxCount: 1, Labels: []string{"a"}}
			tt.mutate(&cfg)
			_, err := NewConfig(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestExtract(t *testing.T) {
	e := NewExtractor(testConfig(t, nil))

	d, err := e.Extract([]byte(annotationJSON))
	require.NoError(t, err)

	assert.Equal(t, 200, d.Width)
	assert.Equal(t, 100, d.Height)
	assert.Equal(t, 3, d.Depth)
	require.Len(t, d.Boxes, 2)
	assert.Equal(t, Box{Xmin: 10, Ymin: 20, Xmax: 60, Ymax: 80, Label: 1, Difficult: true}, d.Boxes[0])
	assert.Equal(t, Box{Xmin: 150, Ymin: 0, Xmax: 190, Ymax: 50, Label: 0, Truncated: true}, d.Boxes[1])
}

func TestExtractErrors(t *testing.T) {
	e := NewExtractor(testConfig(t, nil))

	_, err := e.Extract([]byte(`{"object":[{"name":"horse"}]}`))
	assert.ErrorIs(t, err, ErrUnknownLabel)

	_, err = e.Extract([]byte(`{"size":`))
	assert.Error(t, err)
}

func TestTransformCropFlipScale(t *testing.T) {
	d := &Decoded{Width: 200, Height: 100, Depth: 3, Boxes: []Box{
		{Xmin: 10, Ymin: 20, Xmax: 60, Ymax: 80, Label: 1},
		{Xmin: 150, Ymin: 0, Xmax: 190, Ymax: 50, Label: 0},
		{Xmin: 0, Ymin: 0, Xmax: 5, Ymax: 5, Label: 2},
	}}
	params := &image.Params{
		Cropbox:      image.Rect{X: 20, Y: 10, Width: 160, Height: 80},
		OutputWidth:  80,
		OutputHeight: 40,
	}

	out, err := NewTransformer().Transform(params, d)
	require.NoError(t, err)
	assert.Equal(t, 80, out.Width)
	assert.Equal(t, 40, out.Height)
	assert.Equal(t, 3, out.Depth)

	// third box is outside the crop
	require.Len(t, out.Boxes, 2)
	assert.Equal(t, Box{Xmin: 0, Ymin: 5, Xmax: 20, Ymax: 35, Label: 1}, out.Boxes[0])
	assert.Equal(t, Box{Xmin: 65, Ymin: 0, Xmax: 80, Ymax: 20, Label: 0}, out.Boxes[1])

	params.Flip = true
	flipped, err := NewTransformer().Transform(params, d)
	require.NoError(t, err)
	assert.Equal(t, Box{Xmin: 60, Ymin: 5, Xmax: 80, Ymax: 35, Label: 1}, flipped.Boxes[0])
	assert.Equal(t, Box{Xmin: 0, Ymin: 0, Xmax: 15, Ymax: 20, Label: 0}, flipped.Boxes[1])

	// the input is untouched
	assert.Equal(t, 10.0, d.Boxes[0].Xmin)
}

func TestTransformNilParams(t *testing.T) {
	d := &Decoded{Width: 1, Height: 1}
	out, err := NewTransformer().Transform(nil, d)
	require.NoError(t, err)
	assert.Same(t, d, out)
}

func TestLoadTruncatesToCapacity(t *testing.T) {
	cfg := testConfig(t, func(c *Config) { c.OutputDifficult = true })
	l := NewLoader(cfg)

	d := &Decoded{}
	for i := 0; i < 5; i++ {
		f := float64(i)
		d.Boxes = append(d.Boxes, Box{Xmin: f, Ymin: f + 0.5, Xmax: f + 1, Ymax: f + 2, Label: i % 3, Difficult: i == 1})
	}

	dst := etl.AllocBuffers(l.BufferSizes())
	require.NoError(t, l.Load(dst, d))

	assert.Equal(t, int32(3), readInt(dst[2], 0))
	for i := 0; i < 3; i++ {
		f := float32(i)
		assert.Equal(t, f, readFloat(dst[0], 4*i))
		assert.Equal(t, f+0.5, readFloat(dst[0], 4*i+1))
		assert.Equal(t, f+1, readFloat(dst[0], 4*i+2))
		assert.Equal(t, f+2, readFloat(dst[0], 4*i+3))
		assert.Equal(t, int32(i%3), readInt(dst[1], i))
	}
	assert.Equal(t, []byte{0, 1, 0}, dst[3])
}

func TestLoadZeroesUnusedSlots(t *testing.T) {
	cfg := testConfig(t, func(c *Config) { c.TypeString = TypeInt32; c.OutputTruncated = true })
	l := NewLoader(cfg)

	dst := etl.AllocBuffers(l.BufferSizes())
	for _, b := range dst {
		for i := range b {
			b[i] = 0xFF
		}
	}

	d := &Decoded{Boxes: []Box{{Xmin: 1.4, Ymin: 2.6, Xmax: 10, Ymax: 20, Label: 2, Truncated: true}}}
	require.NoError(t, l.Load(dst, d))

	assert.Equal(t, []int32{1, 3, 10, 20}, []int32{readInt(dst[0], 0), readInt(dst[0], 1), readInt(dst[0], 2), readInt(dst[0], 3)})
	assert.Equal(t, make([]byte, 32), dst[0][16:])
	assert.Equal(t, int32(2), readInt(dst[1], 0))
	assert.Equal(t, make([]byte, 8), dst[1][4:])
	assert.Equal(t, int32(1), readInt(dst[2], 0))
	// truncated flags take the slot after the count when difficult is off
	assert.Equal(t, []byte{1, 0, 0}, dst[3])
}

func TestLoadBufferTooSmall(t *testing.T) {
	l := NewLoader(testConfig(t, nil))

	dst := etl.AllocBuffers(l.BufferSizes())
	dst[0] = dst[0][:47]
	assert.ErrorIs(t, l.Load(dst, &Decoded{}), etl.ErrBufferTooSmall)
	assert.ErrorIs(t, l.Load(dst[:2], &Decoded{}), etl.ErrBufferTooSmall)
}

func TestPipeline(t *testing.T) {
	cfg := testConfig(t, nil)
	p := &etl.Pipeline[*Decoded, *image.Params]{
		Extractor:   NewExtractor(cfg),
		Transformer: NewTransformer(),
		Loader:      NewLoader(cfg),
	}

	dst := etl.AllocBuffers(cfg.BufferSizes())
	require.NoError(t, p.Process(loader.Record{Data: []byte(annotationJSON)}, nil, dst))
	assert.Equal(t, int32(2), readInt(dst[2], 0))
	assert.Equal(t, int32(1), readInt(dst[1], 0))
	assert.Equal(t, float32(190), readFloat(dst[0], 6))

	err := p.Process(loader.Record{Data: []byte(`{"object":[{"name":"fish"}]}`)}, nil, dst)
	assert.ErrorIs(t, err, etl.ErrDecode)
	assert.ErrorIs(t, err, ErrUnknownLabel)
}
