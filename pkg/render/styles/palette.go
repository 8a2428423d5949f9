// Package styles holds the lane colours and text helpers shared by the
// output sinks.
package styles

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Palette assigns a colour to every visible lane.
type Palette struct {
	colors []colorful.Color
}

const (
	baseHue   = 210.0
	chroma    = 0.55
	lightness = 0.62
)

// NewPalette returns a palette of n colours spread evenly around the HCL
// hue circle at constant chroma and lightness, so no lane stands out.
func NewPalette(n int) Palette {
	n = max(n, 1)
	p := Palette{colors: make([]colorful.Color, n)}
	step := 360.0 / float64(n)
	for i := range n {
		hue := baseHue + step*float64(i)
		for hue >= 360 {
			hue -= 360
		}
		p.colors[i] = colorful.Hcl(hue, chroma, lightness).Clamped()
	}
	return p
}

// FromHex builds a palette from explicit colours. Invalid entries are
// skipped; an empty result falls back to [NewPalette] with 7 colours.
func FromHex(hexes []string) Palette {
	var p Palette
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			continue
		}
		p.colors = append(p.colors, c)
	}
	if len(p.colors) == 0 {
		return NewPalette(7)
	}
	return p
}

// Len returns the number of distinct colours.
func (p Palette) Len() int { return len(p.colors) }

// Hex returns the "#rrggbb" colour of lane. Lanes past the palette wrap.
func (p Palette) Hex(lane int) string {
	if len(p.colors) == 0 {
		p = NewPalette(1)
	}
	lane %= len(p.colors)
	if lane < 0 {
		lane += len(p.colors)
	}
	return p.colors[lane].Hex()
}

// Muted returns lane's colour blended halfway towards white, used for
// label text and row backgrounds.
func (p Palette) Muted(lane int) string {
	c, _ := colorful.Hex(p.Hex(lane))
	return c.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.5).Clamped().Hex()
}
