package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeStaysInsideSource(t *testing.T) {
	f, err := NewParamFactory(Config{Height: 32, Width: 64, ScaleMin: 0.3, FlipEnable: true}, 1)
	require.NoError(t, err)

	var flips int
	for i := 0; i < 500; i++ {
		p := f.Make(640, 480)
		r := p.Cropbox

		require.GreaterOrEqual(t, r.X, 0)
		require.GreaterOrEqual(t, r.Y, 0)
		require.LessOrEqual(t, r.X+r.Width, 640)
		require.LessOrEqual(t, r.Y+r.Height, 480)
		require.GreaterOrEqual(t, r.Width, 192)
		assert.Equal(t, 64, p.OutputWidth)
		assert.Equal(t, 32, p.OutputHeight)

		if p.Flip {
			flips++
		}
	}

	assert.Greater(t, flips, 150)
	assert.Less(t, flips, 350)
}

func TestMakeDeterministic(t *testing.T) {
	cfg := Config{Height: 10, Width: 10, ScaleMin: 0.5, FlipEnable: true}
	a, err := NewParamFactory(cfg, 9)
	require.NoError(t, err)
	b, err := NewParamFactory(cfg, 9)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Make(100, 80), b.Make(100, 80))
	}
}

func TestMakeFullCenterCrop(t *testing.T) {
	f, err := NewParamFactory(Config{Height: 50, Width: 100, ScaleMin: 1, CenterCrop: true}, 0)
	require.NoError(t, err)

	p := f.Make(200, 100)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 200, Height: 100}, p.Cropbox)
	assert.False(t, p.Flip)
	assert.InDelta(t, 0.5, p.ScaleX(), 1e-12)
	assert.InDelta(t, 0.5, p.ScaleY(), 1e-12)
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, Config{Height: 0, Width: 1, ScaleMin: 1}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Height: 1, Width: 1, ScaleMin: 0}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Height: 1, Width: 1, ScaleMin: 1.1}.Validate(), ErrInvalidConfig)
	assert.NoError(t, Config{Height: 1, Width: 1, ScaleMin: 0.1}.Validate())
}
