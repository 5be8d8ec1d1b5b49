package synth

import "strings"

// Sketch identifies one of the built-in visual patterns.
type Sketch int

const (
	Oscillator Sketch = iota
	Rainbow
	Kaleidoscope
	Feedback
	Noise
	Voronoi
	Stripes
	Waves
	Plasma
)

var sketchNames = [...]string{
	Oscillator:   "oscillator",
	Rainbow:      "rainbow",
	Kaleidoscope: "kaleidoscope",
	Feedback:     "feedback",
	Noise:        "noise",
	Voronoi:      "voronoi",
	Stripes:      "stripes",
	Waves:        "waves",
	Plasma:       "plasma",
}

// Sketches returns every sketch in menu order.
func Sketches() []Sketch {
	return []Sketch{Oscillator, Rainbow, Kaleidoscope, Feedback, Noise, Voronoi, Stripes, Waves, Plasma}
}

func (s Sketch) String() string {
	if s < 0 || int(s) >= len(sketchNames) {
		return sketchNames[Oscillator]
	}
	return sketchNames[s]
}

// ParseSketch resolves a sketch name. Unknown names give Oscillator.
func ParseSketch(name string) Sketch {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range sketchNames {
		if n == name {
			return Sketch(i)
		}
	}
	return Oscillator
}
