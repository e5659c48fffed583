package slideshow

import "fmt"

type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Bounds is the canvas envelope. Min and Max are expected to be even.
type Bounds struct {
	Min Size
	Max Size
}

var DefaultBounds = Bounds{
	Min: Size{Width: 1280, Height: 720},
	Max: Size{Width: 1920, Height: 1080},
}

// PlanCanvas derives the shared output frame for a set of source images.
//
// The largest width and height across inputs are raised to the floor, then
// scaled down uniformly by the smaller of the two ceiling ratios if either
// dimension is too large. Dimensions are rounded down to even values for
// 4:2:0 encoding and finally clamped into the envelope, which only matters
// for aspect ratios the envelope cannot represent.
func PlanCanvas(sizes []Size, b Bounds) (Size, error) {
	if len(sizes) == 0 {
		return Size{}, invalid("At least one image is required.")
	}

	var w, h int
	for i, s := range sizes {
		if s.Width <= 0 || s.Height <= 0 {
			return Size{}, invalid("Image %d has invalid dimensions %s.", i+1, s)
		}
		w = max(w, s.Width)
		h = max(h, s.Height)
	}

	w = max(w, b.Min.Width)
	h = max(h, b.Min.Height)

	if w > b.Max.Width || h > b.Max.Height {
		// Integer arithmetic keeps the dominant side exactly on the ceiling.
		if b.Max.Width*h <= b.Max.Height*w {
			h = h * b.Max.Width / w
			w = b.Max.Width
		} else {
			w = w * b.Max.Height / h
			h = b.Max.Height
		}
	}

	w &^= 1
	h &^= 1

	w = min(max(w, b.Min.Width), b.Max.Width)
	h = min(max(h, b.Min.Height), b.Max.Height)

	return Size{Width: w, Height: h}, nil
}
