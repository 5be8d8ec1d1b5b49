// Package synth is a small CPU visual synthesizer. It renders animated 2D patterns
// that drive the field displacement of the sphere.
package synth

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/MeKo-Tech/hydrasphere/internal/audio"
	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
	"github.com/aquilax/go-perlin"
	"github.com/disintegration/gift"
)

// DefaultSize is the edge length of rendered frames.
const DefaultSize = 512

// Renderer draws frames of one sketch.
// Only the feedback sketch keeps state (its previous frame); the others are pure
// functions of time and audio bands.
type Renderer struct {
	noise     *perlin.Perlin
	prev      *image.NRGBA
	sketch    Sketch
	size      int
	seed      int64
	audioGain float64
	blur      float32
	mu        sync.Mutex
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the frame edge length in pixels.
func WithSize(size int) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.size = size
		}
	}
}

// WithSeed seeds the noise sketch.
func WithSeed(seed int64) Option {
	return func(r *Renderer) { r.seed = seed }
}

// WithAudioGain sets how strongly the mean band level brightens frames.
func WithAudioGain(gain float64) Option {
	return func(r *Renderer) { r.audioGain = gain }
}

// WithBlur softens every frame with a Gaussian blur of the given sigma.
func WithBlur(sigma float32) Option {
	return func(r *Renderer) { r.blur = sigma }
}

// NewRenderer creates a renderer for sketch s.
func NewRenderer(s Sketch, opts ...Option) *Renderer {
	r := &Renderer{
		sketch: ParseSketch(s.String()),
		size:   DefaultSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.noise = perlin.NewPerlin(2, 2, 3, r.seed)
	return r
}

// Size returns the frame edge length.
func (r *Renderer) Size() int { return r.size }

// Sketch returns the active sketch.
func (r *Renderer) Sketch() Sketch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sketch
}

// SetSketch switches the active sketch and drops any feedback state.
func (r *Renderer) SetSketch(s Sketch) {
	r.mu.Lock()
	r.sketch = ParseSketch(s.String())
	r.prev = nil
	r.mu.Unlock()
}

// Render draws the frame at time t. The returned image must not be modified;
// the feedback sketch reads it back on the next call.
func (r *Renderer) Render(t float64, bands audio.Bands) *image.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	var img *image.NRGBA
	switch r.sketch {
	case Rainbow:
		img = r.fill(func(p st) vecmath.Vec4 { return gradient(p, 1, t) })
		img = apply(img, gift.Hue(hueShift(t*0.1)))
	case Kaleidoscope:
		img = r.fill(func(p st) vecmath.Vec4 { return osc(kaleid(p, 6), 10, 0.1, 1.5, t) })
	case Feedback:
		img = r.feedback(t)
	case Noise:
		img = r.fill(func(p st) vecmath.Vec4 {
			m := r.perlinAt(p, 20, 0.1*t)
			return r.perlinAt(modulate(p, m, 0.1), 10, 0.1*t)
		})
	case Voronoi:
		img = r.fill(func(p st) vecmath.Vec4 { return voronoi(p, 10, 0.5, 0.3, t) })
	case Stripes:
		img = r.fill(func(p st) vecmath.Vec4 { return thresh(osc(p, 60, 0.1, 0, t), 0.5, 0.04) })
	case Waves:
		img = r.fill(func(p st) vecmath.Vec4 {
			m := osc(rotate(p, 1.57), 20, 0.1, 0, t)
			return osc(modulate(p, m, 0.1), 10, 0.1, 1, t)
		})
	case Plasma:
		img = r.fill(func(p st) vecmath.Vec4 {
			a := osc(p, 10, 0.1, 0.8, t)
			a[1] *= 0.5
			a[2] *= 0.2
			return mult(a, osc(rotate(p, 0.5), 20, 0.2, 1, t), 1)
		})
	default:
		img = r.fill(func(p st) vecmath.Vec4 { return osc(p, 10, 0.1, 1.5, t) })
	}

	if r.blur > 0 {
		img = apply(img, gift.GaussianBlur(r.blur))
	}
	if r.audioGain != 0 {
		brighten(img, 1+r.audioGain*mean(bands))
	}

	if r.sketch == Feedback {
		r.prev = img
	}
	return img
}

// feedback zooms and turns the previous frame slightly and mixes in a fresh oscillator.
func (r *Renderer) feedback(t float64) *image.NRGBA {
	prev := r.prev
	if prev == nil {
		prev = image.NewNRGBA(image.Rect(0, 0, r.size, r.size))
	}

	warped := apply(prev,
		gift.Resize(int(math.Round(float64(r.size)*1.01)), 0, gift.LinearResampling),
		gift.Rotate(0.573, color.Black, gift.LinearInterpolation),
		gift.CropToSize(r.size, r.size, gift.CenterAnchor),
	)

	return r.fill(func(p st) vecmath.Vec4 {
		x := int(p[0] * float64(r.size))
		y := r.size - 1 - int(p[1]*float64(r.size))
		i := warped.PixOffset(x, y)
		prevColor := vecmath.Vec4{
			float64(warped.Pix[i+0]) / 255,
			float64(warped.Pix[i+1]) / 255,
			float64(warped.Pix[i+2]) / 255,
			1,
		}
		fresh := osc(p, 10, 0.1, 0, t)
		var out vecmath.Vec4
		for c := range out {
			out[c] = vecmath.Mix(prevColor[c], fresh[c], 0.5)
		}
		return out
	})
}

func (r *Renderer) perlinAt(p st, scale, z float64) vecmath.Vec4 {
	v := r.noise.Noise3D(p[0]*scale, p[1]*scale, z)
	return vecmath.Vec4{v, v, v, 1}
}

// fill evaluates fn at every pixel centre. Rows run top to bottom while st.y runs
// bottom to top.
func (r *Renderer) fill(fn func(st) vecmath.Vec4) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.size, r.size))
	inv := 1 / float64(r.size)
	for y := 0; y < r.size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < r.size; x++ {
			c := fn(st{(float64(x) + 0.5) * inv, 1 - (float64(y)+0.5)*inv})
			row[4*x+0] = toByte(c[0])
			row[4*x+1] = toByte(c[1])
			row[4*x+2] = toByte(c[2])
			row[4*x+3] = 255
		}
	}
	return img
}

func apply(img *image.NRGBA, filters ...gift.Filter) *image.NRGBA {
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

func brighten(img *image.NRGBA, k float64) {
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = toByte(float64(img.Pix[i+c]) / 255 * k)
		}
	}
}

// hueShift converts a shift in turns to gift's [-180, 180] degree range.
func hueShift(turns float64) float32 {
	deg := vecmath.Fract(turns) * 360
	if deg > 180 {
		deg -= 360
	}
	return float32(deg)
}

func mean(b audio.Bands) float64 {
	var sum float64
	for _, v := range b {
		sum += v
	}
	return sum / float64(len(b))
}

func toByte(v float64) uint8 {
	return uint8(math.Round(vecmath.Clamp(v, 0, 1) * 255))
}
