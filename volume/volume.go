// Package volume provides in-memory numeric arrays for volumetric data.
//
// A Grid holds samples in row-major order (the last dimension varies
// fastest), matching the "C" chunk layout of the on-disk stores this
// repository reads.
package volume

import (
	"fmt"
)

// Volume is a 3-dimensional array of samples that can produce 2-d
// z-slices. It is satisfied both by the fully materialized *Grid and by
// lazily-backed store handles that read chunks on demand.
type Volume interface {
	Shape() []int
	ZSlice(z int) (*Slice2D, error)
}

// Strides returns row-major strides for shape: the element offset
// between consecutive indices along each dimension.
func Strides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Size returns the number of elements an array of the given shape holds.
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Grid is a dense n-dimensional float64 array.
type Grid struct {
	shape   []int
	strides []int
	data    []float64
}

// NewGrid allocates a zero-filled grid of the given shape.
func NewGrid(shape ...int) *Grid {
	return &Grid{
		shape:   append([]int{}, shape...),
		strides: Strides(shape),
		data:    make([]float64, Size(shape)),
	}
}

// NewGridData wraps data as a grid of the given shape without copying.
func NewGridData(shape []int, data []float64) (*Grid, error) {
	if Size(shape) != len(data) {
		return nil, fmt.Errorf("shape %v needs %d elements, have %d", shape, Size(shape), len(data))
	}
	return &Grid{
		shape:   append([]int{}, shape...),
		strides: Strides(shape),
		data:    data,
	}, nil
}

// Shape returns the length of each dimension.
func (g *Grid) Shape() []int {
	return append([]int{}, g.shape...)
}

// NumDims returns the number of dimensions.
func (g *Grid) NumDims() int { return len(g.shape) }

// Len returns the total number of samples.
func (g *Grid) Len() int { return len(g.data) }

// Data returns the backing row-major sample slice.
func (g *Grid) Data() []float64 { return g.data }

func (g *Grid) offset(ix []int) int {
	if len(ix) != len(g.shape) {
		panic(fmt.Sprintf("volume: %d indices for %d-d grid", len(ix), len(g.shape)))
	}
	off := 0
	for i, x := range ix {
		if x < 0 || x >= g.shape[i] {
			panic(fmt.Sprintf("volume: index %d out of range [0,%d) in dimension %d", x, g.shape[i], i))
		}
		off += x * g.strides[i]
	}
	return off
}

// At returns the sample at the given indices.
func (g *Grid) At(ix ...int) float64 {
	return g.data[g.offset(ix)]
}

// Set stores v at the given indices.
func (g *Grid) Set(v float64, ix ...int) {
	g.data[g.offset(ix)] = v
}

// ZSlice returns a copy of the 2-d plane at the given index of the last
// dimension. The grid must be 3-dimensional.
func (g *Grid) ZSlice(z int) (*Slice2D, error) {
	if len(g.shape) != 3 {
		return nil, fmt.Errorf("z-slice needs a 3-d grid, have %d dimensions", len(g.shape))
	}
	if z < 0 || z >= g.shape[2] {
		return nil, fmt.Errorf("z index %d out of range [0,%d)", z, g.shape[2])
	}
	s := NewSlice2D(g.shape[0], g.shape[1])
	for i := 0; i < g.shape[0]; i++ {
		for j := 0; j < g.shape[1]; j++ {
			s.Set(g.data[i*g.strides[0]+j*g.strides[1]+z], i, j)
		}
	}
	return s, nil
}

var _ Volume = (*Grid)(nil)

// Slice2D is a dense rows×cols plane of samples, derived from a Volume
// by fixing the z coordinate.
type Slice2D struct {
	rows, cols int
	data       []float64
}

// NewSlice2D allocates a zero-filled rows×cols slice.
func NewSlice2D(rows, cols int) *Slice2D {
	return &Slice2D{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Rows returns the number of rows.
func (s *Slice2D) Rows() int { return s.rows }

// Cols returns the number of columns.
func (s *Slice2D) Cols() int { return s.cols }

// At returns the sample at row r, column c.
func (s *Slice2D) At(r, c int) float64 {
	return s.data[r*s.cols+c]
}

// Set stores v at row r, column c.
func (s *Slice2D) Set(v float64, r, c int) {
	s.data[r*s.cols+c] = v
}

// Data returns the backing row-major sample slice.
func (s *Slice2D) Data() []float64 { return s.data }
