package params

import (
	"fmt"
	"image/color"
	"net/url"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/hydrasphere/internal/preset"
)

// Parameter keys, shared by URL query strings, config files and websocket updates.
const (
	KeyPreset           = "preset"
	KeyEffect           = "fragmentPreset"
	KeyFresnelIntensity = "fresnelIntensity"
	KeyFresnelColor     = "fresnelColor"
	KeyNoiseStrength    = "noiseStrength"
	KeyNoiseFrequency   = "noiseFrequency"
	KeyAnimationSpeed   = "animationSpeed"
	KeyGlitchEnabled    = "glitchEnabled"
	KeyGlitchIntensity  = "glitchIntensity"
	KeyGlitchFrequency  = "glitchFrequency"
	KeyGlitchSpeed      = "glitchSpeed"
	KeyGlitchRandomness = "glitchRandomness"
	KeyHydraBlend       = "hydraBlend"
	KeyHydraStrength    = "hydraStrength"
)

// Keys lists every parameter key.
var Keys = []string{
	KeyPreset, KeyEffect, KeyFresnelIntensity, KeyFresnelColor,
	KeyNoiseStrength, KeyNoiseFrequency, KeyAnimationSpeed,
	KeyGlitchEnabled, KeyGlitchIntensity, KeyGlitchFrequency, KeyGlitchSpeed, KeyGlitchRandomness,
	KeyHydraBlend, KeyHydraStrength,
}

// Set assigns one parameter from its string form. Keys match case-insensitively.
// It reports whether the value was understood; rejected values leave p unchanged.
// The result is not clamped; call Clamp once all values are applied.
func (p *Parameters) Set(key, value string) bool {
	value = strings.TrimSpace(value)

	switch strings.ToLower(key) {
	case strings.ToLower(KeyPreset):
		p.Preset = preset.Parse(value)
		return true
	case strings.ToLower(KeyEffect):
		p.Effect = ParseEffect(value)
		return true
	case strings.ToLower(KeyFresnelColor):
		c, err := ParseColor(value)
		if err != nil {
			return false
		}
		p.FresnelColor = c
		return true
	case strings.ToLower(KeyGlitchEnabled):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		p.Glitch.Enabled = b
		return true
	}

	target := p.floatField(key)
	if target == nil {
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	*target = f
	return true
}

// SetAny is Set for decoded JSON values: strings, numbers and booleans.
func (p *Parameters) SetAny(key string, v any) bool {
	switch x := v.(type) {
	case string:
		return p.Set(key, x)
	case float64:
		return p.Set(key, strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		return p.Set(key, strconv.FormatBool(x))
	}
	return false
}

func (p *Parameters) floatField(key string) *float64 {
	switch strings.ToLower(key) {
	case strings.ToLower(KeyFresnelIntensity):
		return &p.FresnelIntensity
	case strings.ToLower(KeyNoiseStrength):
		return &p.NoiseStrength
	case strings.ToLower(KeyNoiseFrequency):
		return &p.NoiseFrequency
	case strings.ToLower(KeyAnimationSpeed):
		return &p.AnimationSpeed
	case strings.ToLower(KeyGlitchIntensity):
		return &p.Glitch.Intensity
	case strings.ToLower(KeyGlitchFrequency):
		return &p.Glitch.Grid
	case strings.ToLower(KeyGlitchSpeed):
		return &p.Glitch.Speed
	case strings.ToLower(KeyGlitchRandomness):
		return &p.Glitch.Randomness
	case strings.ToLower(KeyHydraBlend):
		return &p.HydraBlend
	case strings.ToLower(KeyHydraStrength):
		return &p.HydraStrength
	}
	return nil
}

// FromValues overlays URL-style values onto base and clamps the result.
// Unknown keys and unparsable values are ignored.
func FromValues(values url.Values, base Parameters) Parameters {
	p := base
	for key, vs := range values {
		if len(vs) == 0 {
			continue
		}
		p.Set(key, vs[len(vs)-1])
	}
	return p.Clamp()
}

// ParseQuery overlays a raw query string such as "preset=twister&noiseStrength=0.6".
func ParseQuery(query string, base Parameters) (Parameters, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return base, fmt.Errorf("invalid parameter query: %w", err)
	}
	return FromValues(values, base), nil
}

// Values encodes p with the same keys FromValues understands.
func (p Parameters) Values() url.Values {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

	v := url.Values{}
	v.Set(KeyPreset, p.Preset.String())
	v.Set(KeyEffect, p.Effect.String())
	v.Set(KeyFresnelIntensity, f(p.FresnelIntensity))
	v.Set(KeyFresnelColor, FormatColor(p.FresnelColor))
	v.Set(KeyNoiseStrength, f(p.NoiseStrength))
	v.Set(KeyNoiseFrequency, f(p.NoiseFrequency))
	v.Set(KeyAnimationSpeed, f(p.AnimationSpeed))
	v.Set(KeyGlitchEnabled, strconv.FormatBool(p.Glitch.Enabled))
	v.Set(KeyGlitchIntensity, f(p.Glitch.Intensity))
	v.Set(KeyGlitchFrequency, f(p.Glitch.Grid))
	v.Set(KeyGlitchSpeed, f(p.Glitch.Speed))
	v.Set(KeyGlitchRandomness, f(p.Glitch.Randomness))
	v.Set(KeyHydraBlend, f(p.HydraBlend))
	v.Set(KeyHydraStrength, f(p.HydraStrength))
	return v
}

// Map flattens Values into a plain map, for JSON responses.
func (p Parameters) Map() map[string]string {
	out := make(map[string]string, len(Keys))
	for key, vs := range p.Values() {
		out[key] = vs[0]
	}
	return out
}

// ParseColor parses "#rrggbb" or "#rgb" (the leading # is optional).
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
