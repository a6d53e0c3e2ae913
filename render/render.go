// Package render draws 2-d z-slices of a volume as grayscale images on
// gonum plot surfaces.
package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/hoa-vis/heartslice/volume"
)

// Grays is a linear black-to-white palette with the given number of
// levels.
type Grays int

// Colors implements palette.Palette.
func (g Grays) Colors() []color.Color {
	n := int(g)
	if n < 2 {
		n = 2
	}
	cs := make([]color.Color, n)
	for i := range cs {
		y := uint8(i * 255 / (n - 1))
		cs[i] = color.Gray{Y: y}
	}
	return cs
}

// sliceGrid adapts a Slice2D to the heatmap grid interface. Columns map
// to x and rows to y; z values are the samples themselves.
type sliceGrid struct {
	s *volume.Slice2D
}

func (g sliceGrid) Dims() (c, r int)   { return g.s.Cols(), g.s.Rows() }
func (g sliceGrid) Z(c, r int) float64 { return g.s.At(r, c) }
func (g sliceGrid) X(c int) float64    { return float64(c) }
func (g sliceGrid) Y(r int) float64    { return float64(r) }

var _ plotter.GridXYZ = sliceGrid{}

// Slice draws the z-slice of v onto p as a grayscale heatmap, titles it
// "Slice at z=<z>" and hides the axes. A nil p gets a fresh default
// surface. The drawn-on surface is returned; out-of-range z surfaces
// the volume's own bounds error unchanged.
func Slice(v volume.Volume, z int, p *plot.Plot) (*plot.Plot, error) {
	if p == nil {
		p = plot.New()
	}

	s, err := v.ZSlice(z)
	if err != nil {
		return nil, err
	}

	p.Add(plotter.NewHeatMap(sliceGrid{s}, Grays(256)))
	p.Title.Text = fmt.Sprintf("Slice at z=%d", z)
	p.HideAxes()

	return p, nil
}
