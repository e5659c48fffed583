package slideshow

import (
	"math"
	"strings"
)

// Mode is the per-clip animation.
type Mode string

const (
	ModeNone     Mode = "none"
	ModeSlide    Mode = "slide"
	ModeZoomIn   Mode = "zoom_in"
	ModeZoomOut  Mode = "zoom_out"
	ModeKenBurns Mode = "ken_burns"
)

// ParseMode maps a form value to a Mode. Unknown values are static.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSlide, ModeZoomIn, ModeZoomOut, ModeKenBurns:
		return m
	default:
		return ModeNone
	}
}

// Zoom reports whether the mode animates scale rather than position.
func (m Mode) Zoom() bool {
	return m == ModeZoomIn || m == ModeZoomOut || m == ModeKenBurns
}

// Pose places the scaled image on the canvas. X and Y are the image centre in
// canvas pixels; Scale is applied on top of the fill scale.
type Pose struct {
	X     float64
	Y     float64
	Scale float64
}

// Motion is a linear interpolation between two poses over Duration seconds.
type Motion struct {
	Mode     Mode
	From     Pose
	To       Pose
	Duration float64
}

func (m Motion) Animated() bool {
	return m.From != m.To
}

// At returns the pose at elapsed time t, clamped into [0, Duration].
func (m Motion) At(t float64) Pose {
	if m.Duration <= 0 {
		return m.To
	}
	p := math.Min(math.Max(t/m.Duration, 0), 1)
	return Pose{
		X:     lerp(m.From.X, m.To.X, p),
		Y:     lerp(m.From.Y, m.To.Y, p),
		Scale: lerp(m.From.Scale, m.To.Scale, p),
	}
}

func lerp(a, b, p float64) float64 {
	return a + (b-a)*p
}

// Clip is one image mapped onto the canvas.
type Clip struct {
	Path      string
	Source    Size
	Canvas    Size
	FillScale float64
	Scaled    Size
	Duration  float64
	Motion    Motion
}

// Resolve computes the fill transform and motion for one image.
func Resolve(src, canvas Size, mode Mode, duration float64) Clip {
	fill := math.Max(
		float64(canvas.Width)/float64(src.Width),
		float64(canvas.Height)/float64(src.Height),
	)
	scaled := Size{
		Width:  ceilEven(fill * float64(src.Width)),
		Height: ceilEven(fill * float64(src.Height)),
	}

	cx := float64(canvas.Width) / 2
	cy := float64(canvas.Height) / 2
	centred := Pose{X: cx, Y: cy, Scale: 1}

	motion := Motion{Mode: mode, From: centred, To: centred, Duration: duration}
	switch mode {
	case ModeKenBurns:
		motion.To.Scale = 1.1
	case ModeZoomIn:
		motion.To.Scale = 1.15
	case ModeZoomOut:
		motion.From.Scale = 1.15
	case ModeSlide:
		// Left edge starts on the right border of the canvas.
		motion.From.X = float64(canvas.Width) + float64(scaled.Width)/2
	default:
		motion.Mode = ModeNone
	}

	return Clip{
		Source:    src,
		Canvas:    canvas,
		FillScale: fill,
		Scaled:    scaled,
		Duration:  duration,
		Motion:    motion,
	}
}

func ceilEven(v float64) int {
	n := int(math.Ceil(v - 1e-9))
	if n%2 != 0 {
		n++
	}
	return n
}
