package loader

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "# image, annotation\n" +
		"img/0.jpg, ann/0.json\n" +
		"\n" +
		"/abs/1.jpg,ann/1.json\n"
	require.NoError(t, afero.WriteFile(fs, "/sets/train/manifest.csv", []byte(content), 0o644))

	m, err := LoadCSVManifest(fs, "/sets/train/manifest.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 2, m.ElementsPerRecord())
	assert.Equal(t, []string{"/sets/train/img/0.jpg", "/sets/train/ann/0.json"}, m.Record(0))
	assert.Equal(t, []string{"/abs/1.jpg", "/sets/train/ann/1.json"}, m.Record(1))
}

func TestLoadCSVManifestRagged(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/m.csv", []byte("a,b\nc\n"), 0o644))

	_, err := LoadCSVManifest(fs, "/m.csv")
	assert.ErrorIs(t, err, ErrMalformedManifest)
}

func TestLoadCSVManifestMissing(t *testing.T) {
	_, err := LoadCSVManifest(afero.NewMemMapFs(), "/nope.csv")
	assert.Error(t, err)
}

func TestNewStaticManifest(t *testing.T) {
	_, err := NewStaticManifest([][]string{{"a", "b"}, {"c"}})
	assert.ErrorIs(t, err, ErrMalformedManifest)

	_, err = NewStaticManifest([][]string{{}})
	assert.ErrorIs(t, err, ErrMalformedManifest)

	m, err := NewStaticManifest(nil)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}

func TestBufferIn(t *testing.T) {
	b := NewBufferIn()
	b.Add([]byte("x"), nil)
	b.Add(nil, assert.AnError)

	require.Equal(t, 2, b.Len())
	data, err := b.Data(0)
	assert.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
	assert.ErrorIs(t, b.Record(1).Err, assert.AnError)

	b.Reset()
	assert.Zero(t, b.Len())
}
