package slideshow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clipsOf(n int, d float64) []Clip {
	clips := make([]Clip, n)
	for i := range clips {
		clips[i] = Resolve(Size{800, 600}, canvas720, ModeNone, d)
	}
	return clips
}

func TestComposeHardCut(t *testing.T) {
	tl, err := Compose(clipsOf(2, 2), canvas720, false)
	require.NoError(t, err)

	assert.Zero(t, tl.Overlap)
	assert.Equal(t, 4.0, tl.Duration())
	assert.Equal(t, 2.0, tl.Offset(1))
}

func TestComposeCrossfade(t *testing.T) {
	tl, err := Compose(clipsOf(3, 2), canvas720, true)
	require.NoError(t, err)

	assert.Equal(t, 0.5, tl.Overlap)
	assert.InDelta(t, 5.0, tl.Duration(), 1e-9)
	assert.InDelta(t, 1.5, tl.Offset(1), 1e-9)
	assert.InDelta(t, 3.0, tl.Offset(2), 1e-9)
}

func TestCrossfadeOverlapShortClips(t *testing.T) {
	assert.InDelta(t, 0.3, CrossfadeOverlap(1), 1e-9)
	assert.Equal(t, 0.5, CrossfadeOverlap(10))

	tl, err := Compose(clipsOf(2, 1), canvas720, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.7, tl.Duration(), 1e-9)
}

func TestComposeSingleClip(t *testing.T) {
	tl, err := Compose(clipsOf(1, 3), canvas720, true)
	require.NoError(t, err)

	assert.True(t, tl.Single())
	assert.Zero(t, tl.Overlap)
	assert.Equal(t, 3.0, tl.Duration())
}

func TestComposeRejectsEmpty(t *testing.T) {
	_, err := Compose(nil, canvas720, false)

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}
