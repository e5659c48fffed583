package slideshow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var canvas720 = Size{Width: 1280, Height: 720}

func TestResolveFillCoversCanvas(t *testing.T) {
	sources := []Size{{800, 600}, {1000, 500}, {1280, 720}, {333, 1999}, {4000, 100}, {1, 1}}

	for _, src := range sources {
		c := Resolve(src, canvas720, ModeNone, 2)

		assert.GreaterOrEqual(t, c.FillScale*float64(src.Width), float64(canvas720.Width)-1, "src %s", src)
		assert.GreaterOrEqual(t, c.FillScale*float64(src.Height), float64(canvas720.Height)-1, "src %s", src)
		assert.GreaterOrEqual(t, c.Scaled.Width, canvas720.Width)
		assert.GreaterOrEqual(t, c.Scaled.Height, canvas720.Height)
		assert.Zero(t, c.Scaled.Width%2)
		assert.Zero(t, c.Scaled.Height%2)
	}
}

func TestResolveFillScale(t *testing.T) {
	c := Resolve(Size{800, 600}, canvas720, ModeNone, 2)

	assert.InDelta(t, 1.6, c.FillScale, 1e-9)
	assert.Equal(t, Size{1280, 960}, c.Scaled)
}

func TestResolveMotions(t *testing.T) {
	tests := []struct {
		mode      Mode
		fromScale float64
		toScale   float64
	}{
		{ModeNone, 1, 1},
		{ModeKenBurns, 1, 1.1},
		{ModeZoomIn, 1, 1.15},
		{ModeZoomOut, 1.15, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			m := Resolve(Size{800, 600}, canvas720, tt.mode, 2).Motion

			start, end := m.At(0), m.At(2)
			assert.InDelta(t, tt.fromScale, start.Scale, 1e-9)
			assert.InDelta(t, tt.toScale, end.Scale, 1e-9)
			assert.Equal(t, 640.0, start.X)
			assert.Equal(t, 360.0, start.Y)
			assert.Equal(t, 640.0, end.X)
		})
	}
}

func TestResolveSlideEntersFromRight(t *testing.T) {
	c := Resolve(Size{800, 600}, canvas720, ModeSlide, 2)
	m := c.Motion

	start := m.At(0)
	// Left edge of the image sits on the right border.
	assert.Equal(t, float64(canvas720.Width), start.X-float64(c.Scaled.Width)/2)
	assert.Equal(t, 640.0, m.At(2).X)
	assert.Equal(t, 1.0, m.At(1).Scale)
	assert.True(t, m.Animated())

	mid := m.At(1)
	assert.InDelta(t, (start.X+640)/2, mid.X, 1e-9)
}

func TestMotionAtClampsTime(t *testing.T) {
	m := Resolve(Size{800, 600}, canvas720, ModeZoomIn, 2).Motion

	assert.Equal(t, m.At(0), m.At(-5))
	assert.Equal(t, m.At(2), m.At(10))
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeSlide, ParseMode("slide"))
	assert.Equal(t, ModeKenBurns, ParseMode(" Ken_Burns "))
	assert.Equal(t, ModeNone, ParseMode("spin"))
	assert.Equal(t, ModeNone, ParseMode(""))
}

func TestEffectiveMode(t *testing.T) {
	assert.Equal(t, ModeSlide, EffectiveMode("slide", true))
	assert.Equal(t, ModeNone, EffectiveMode("slide", false))
	assert.Equal(t, ModeZoomIn, EffectiveMode("zoom_in", false))
}
