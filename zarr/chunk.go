package zarr

import (
	"strconv"
	"strings"
)

// gridShape is the number of chunks along each dimension:
// ceil(shape[i] / chunks[i]).
func gridShape(shape, chunks []int) []int {
	grid := make([]int, len(shape))
	for i := range shape {
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}
	return grid
}

// chunkKey joins chunk grid coordinates into a store key, e.g.
// coords [1,4] and separator "." give "1.4". A 0-d array has the single
// chunk key "0".
func chunkKey(coords []int, separator string) string {
	if len(coords) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, c := range coords {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(strconv.Itoa(c))
	}
	return sb.String()
}

// nextCoords advances coords through the grid in row-major order,
// returning false after the last coordinate.
func nextCoords(coords, grid []int) bool {
	for i := len(coords) - 1; i >= 0; i-- {
		coords[i]++
		if coords[i] < grid[i] {
			return true
		}
		coords[i] = 0
	}
	return false
}

// chunkDimProjection maps one dimension of a chunk onto the output
// array: the in-bounds sample count and the offsets where the region
// starts in the chunk and in the output.
type chunkDimProjection struct {
	// Count of in-bounds samples along this dimension.
	N int
	// Sample offset of the region within the chunk.
	ChunkOffset int
	// Sample offset of the region within the output array.
	OutOffset int
}

// project clips chunk coords against the array shape. Edge chunks are
// stored full-size, so the in-bounds count shrinks on the last chunk of
// each dimension.
func project(coords, shape, chunks []int) []chunkDimProjection {
	ps := make([]chunkDimProjection, len(coords))
	for i, c := range coords {
		start := c * chunks[i]
		stop := start + chunks[i]
		if stop > shape[i] {
			stop = shape[i]
		}
		ps[i] = chunkDimProjection{
			N:           stop - start,
			ChunkOffset: 0,
			OutOffset:   start,
		}
	}
	return ps
}
