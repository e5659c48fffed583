package slideshow

import "math"

const maxCrossfade = 0.5

// Timeline is the ordered set of clips to render, each layered over an opaque
// black plate of canvas size. Adjacent clips overlap by Overlap seconds.
type Timeline struct {
	Canvas  Size
	Clips   []Clip
	Overlap float64
}

// CrossfadeOverlap is min(0.5s, 30% of the clip duration).
func CrossfadeOverlap(clipDuration float64) float64 {
	return math.Min(maxCrossfade, 0.3*clipDuration)
}

// Compose orders clips into a timeline. A single clip is passed through
// without any join.
func Compose(clips []Clip, canvas Size, crossfade bool) (Timeline, error) {
	if len(clips) == 0 {
		return Timeline{}, invalid("No images to compose.")
	}

	tl := Timeline{Canvas: canvas, Clips: clips}
	if crossfade && len(clips) > 1 {
		shortest := clips[0].Duration
		for _, c := range clips[1:] {
			shortest = math.Min(shortest, c.Duration)
		}
		tl.Overlap = CrossfadeOverlap(shortest)
	}

	return tl, nil
}

func (t Timeline) Single() bool {
	return len(t.Clips) == 1
}

// Offset is the start time of clip i on the output timeline.
func (t Timeline) Offset(i int) float64 {
	var off float64
	for _, c := range t.Clips[:i] {
		off += c.Duration - t.Overlap
	}
	return off
}

func (t Timeline) Duration() float64 {
	if len(t.Clips) == 0 {
		return 0
	}
	last := len(t.Clips) - 1
	return t.Offset(last) + t.Clips[last].Duration
}
