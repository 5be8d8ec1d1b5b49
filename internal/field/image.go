package field

import (
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/MeKo-Tech/hydrasphere/internal/vecmath"
	"golang.org/x/image/draw"
)

// ImageField is an immutable RGBA raster sampled with bilinear filtering and repeat
// wrapping. Values are normalised to [0,1]. v runs bottom-up like a GL texture.
type ImageField struct {
	w, h int
	pix  []float32 // RGBA, row-major, top row first
}

// NewImageField copies img into a float raster.
func NewImageField(img image.Image) *ImageField {
	b := img.Bounds()
	f := &ImageField{w: b.Dx(), h: b.Dy()}
	f.pix = make([]float32, 4*f.w*f.h)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			f.pix[i+0] = float32(c.R) / 255
			f.pix[i+1] = float32(c.G) / 255
			f.pix[i+2] = float32(c.B) / 255
			f.pix[i+3] = float32(c.A) / 255
			i += 4
		}
	}
	return f
}

// Bounds returns the raster size.
func (f *ImageField) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.w, f.h)
}

// Image converts the raster back to an NRGBA image.
func (f *ImageField) Image() *image.NRGBA {
	out := image.NewNRGBA(f.Bounds())
	for i := 0; i < f.w*f.h; i++ {
		for c := 0; c < 4; c++ {
			out.Pix[4*i+c] = uint8(math.Round(float64(f.pix[4*i+c]) * 255))
		}
	}
	return out
}

func wrapIndex(x, max int) int {
	x %= max
	if x < 0 {
		x += max
	}
	return x
}

func (f *ImageField) texel(x, y int) vecmath.Vec4 {
	i := 4 * (wrapIndex(y, f.h)*f.w + wrapIndex(x, f.w))
	return vecmath.Vec4{float64(f.pix[i]), float64(f.pix[i+1]), float64(f.pix[i+2]), float64(f.pix[i+3])}
}

// Sample implements Field.
func (f *ImageField) Sample(u, v float64) vecmath.Vec4 {
	if f == nil || f.w == 0 || f.h == 0 || math.IsNaN(u) || math.IsNaN(v) {
		return vecmath.Vec4{}
	}

	// Texel centres sit at half-integer coordinates.
	fx := u*float64(f.w) - 0.5
	fy := (1-v)*float64(f.h) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	c00 := f.texel(x0, y0)
	c10 := f.texel(x0+1, y0)
	c01 := f.texel(x0, y0+1)
	c11 := f.texel(x0+1, y0+1)

	var out vecmath.Vec4
	for c := 0; c < 4; c++ {
		top := vecmath.Mix(c00[c], c10[c], tx)
		bottom := vecmath.Mix(c01[c], c11[c], tx)
		out[c] = vecmath.Mix(top, bottom, ty)
	}
	return out
}

// Resample scales img to size×size with bilinear filtering.
func Resample(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Latest holds the most recently published field. Producers publish complete
// frames; readers take a snapshot per frame and may see a frame that is one
// publish behind. An empty Latest samples as zero.
type Latest struct {
	current atomic.Pointer[ImageField]
	version atomic.Uint64
}

// Publish replaces the current field.
func (l *Latest) Publish(f *ImageField) {
	l.current.Store(f)
	l.version.Add(1)
}

// Current returns the published field, or nil before the first publish.
func (l *Latest) Current() *ImageField {
	return l.current.Load()
}

// Version counts publishes.
func (l *Latest) Version() uint64 {
	return l.version.Load()
}

// Snapshot implements Snapshotter.
func (l *Latest) Snapshot() Field {
	if f := l.current.Load(); f != nil {
		return f
	}
	return nil
}

// Sample implements Field against whatever is currently published.
func (l *Latest) Sample(u, v float64) vecmath.Vec4 {
	return l.current.Load().Sample(u, v)
}
