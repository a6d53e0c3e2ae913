// Package zarr reads and writes zarr v2 chunked array stores.
//
// An array lives in a Store under a logical path: JSON metadata under
// "<path>/.zarray" and one compressed payload per chunk under keys like
// "<path>/0.1.2". Arrays open lazily; chunk data is only read when the
// array is materialized or sliced.
package zarr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hoa-vis/heartslice/volume"
)

// PersistenceMode selects how an array store is opened.
type PersistenceMode string

const (
	// ModeRead is read only (store must exist).
	ModeRead PersistenceMode = "r"
	// ModeReadWrite is read/write (store must exist).
	ModeReadWrite PersistenceMode = "r+"
	// ModeReadWriteCreate is read/write, creating the store if needed.
	ModeReadWriteCreate PersistenceMode = "a"
	// ModeWrite creates the store, overwriting an existing one.
	ModeWrite PersistenceMode = "w"
	// ModeWriteFail creates the store, failing if it exists.
	ModeWriteFail PersistenceMode = "w-"
)

// Array is a lazily-backed handle on a stored array. It keeps no chunk
// data; every read goes back to the store.
type Array struct {
	path  Path
	store Store
	mode  PersistenceMode
	meta  *ArrayMeta
	codec Codec
}

// Open reads and validates the metadata of the array stored at path.
// Only read-only access is implemented; Save writes arrays.
func Open(store Store, path string, mode PersistenceMode) (*Array, error) {
	if mode != ModeRead {
		return nil, fmt.Errorf("persistence mode %q not supported, arrays open read-only", mode)
	}
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	a := &Array{
		path:  p,
		store: store,
		mode:  mode,
		meta:  &ArrayMeta{},
	}

	mp := p.Join(arrayMetaKey).String()
	f, err := store.Get(mp)
	if err != nil {
		return nil, fmt.Errorf("opening array %q: %w", p.String(), err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(a.meta); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", mp, err)
	}
	if err := a.meta.Validate(); err != nil {
		return nil, fmt.Errorf("array %q: %w", p.String(), err)
	}
	if a.codec, err = a.meta.Compressor.codec(); err != nil {
		return nil, fmt.Errorf("array %q: %w", p.String(), err)
	}

	return a, nil
}

// Meta returns the array metadata.
func (a *Array) Meta() ArrayMeta { return *a.meta }

// Shape returns the length of each array dimension.
func (a *Array) Shape() []int {
	return append([]int{}, a.meta.Shape...)
}

// Path returns the logical path of the array within its store.
func (a *Array) Path() string {
	return a.path.String()
}

// Info returns a one-line human-readable description of the array.
func (a *Array) Info() string {
	return fmt.Sprintf("zarr array path=%s shape=%v chunks=%v dtype=%s store=%s",
		a.path, a.meta.Shape, a.meta.Chunks, a.meta.Dtype, a.store.Type())
}

// readChunk fetches, decompresses and decodes the chunk at the given
// grid coordinates into full-chunk-shape samples. Missing chunks return
// an error wrapping ErrNotFound; callers substitute the fill value.
func (a *Array) readChunk(coords []int) ([]float64, error) {
	key := a.path.Join(chunkKey(coords, a.meta.separator())).String()
	f, err := a.store.Get(key)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := a.codec.Decompress(f)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", key, err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", key, err)
	}

	want := a.meta.chunkSize() * a.meta.Dtype.ByteSize
	if len(raw) != want {
		return nil, fmt.Errorf("chunk %s: %d bytes, want %d", key, len(raw), want)
	}
	vals := make([]float64, 0, a.meta.chunkSize())
	vals, err = a.meta.Dtype.Decode(raw, vals)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", key, err)
	}
	return vals, nil
}

// Read materializes the whole array into an in-memory grid. Chunks
// absent from the store contribute the fill value.
func (a *Array) Read() (*volume.Grid, error) {
	shape := a.meta.Shape
	out := make([]float64, volume.Size(shape))
	if fill := a.meta.FillValue.Value; fill != 0 {
		for i := range out {
			out[i] = fill
		}
	}

	outStrides := volume.Strides(shape)
	chunkStrides := volume.Strides(a.meta.Chunks)
	grid := gridShape(shape, a.meta.Chunks)

	coords := make([]int, len(grid))
	for ok := true; ok; ok = nextCoords(coords, grid) {
		vals, err := a.readChunk(coords)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		copyRegion(out, vals, outStrides, chunkStrides, project(coords, shape, a.meta.Chunks), 0, 0, 0)
	}

	return volume.NewGridData(shape, out)
}

// copyRegion copies the in-bounds region of a decoded chunk into the
// output array, one contiguous run of the last dimension at a time.
func copyRegion(dst, src []float64, dstStrides, srcStrides []int, ps []chunkDimProjection, dim, dstOff, srcOff int) {
	p := ps[dim]
	if dim == len(ps)-1 {
		start := dstOff + (p.OutOffset * dstStrides[dim])
		copy(dst[start:start+p.N], src[srcOff:srcOff+p.N])
		return
	}
	for i := 0; i < p.N; i++ {
		copyRegion(dst, src, dstStrides, srcStrides, ps, dim+1,
			dstOff+(p.OutOffset+i)*dstStrides[dim],
			srcOff+i*srcStrides[dim])
	}
}

// ZSlice reads the 2-d plane at the given last-dimension index without
// materializing the rest of the array: only chunks whose extent covers
// z are fetched. The array must be 3-dimensional.
func (a *Array) ZSlice(z int) (*volume.Slice2D, error) {
	shape := a.meta.Shape
	if len(shape) != 3 {
		return nil, fmt.Errorf("z-slice needs a 3-d array, have %d dimensions", len(shape))
	}
	if z < 0 || z >= shape[2] {
		return nil, fmt.Errorf("z index %d out of range [0,%d)", z, shape[2])
	}

	chunks := a.meta.Chunks
	s := volume.NewSlice2D(shape[0], shape[1])
	if fill := a.meta.FillValue.Value; fill != 0 {
		data := s.Data()
		for i := range data {
			data[i] = fill
		}
	}

	grid := gridShape(shape, chunks)
	chunkStrides := volume.Strides(chunks)
	cz, kLocal := z/chunks[2], z%chunks[2]

	for ci := 0; ci < grid[0]; ci++ {
		for cj := 0; cj < grid[1]; cj++ {
			coords := []int{ci, cj, cz}
			vals, err := a.readChunk(coords)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			ps := project(coords, shape, chunks)
			for i := 0; i < ps[0].N; i++ {
				for j := 0; j < ps[1].N; j++ {
					v := vals[i*chunkStrides[0]+j*chunkStrides[1]+kLocal]
					s.Set(v, ps[0].OutOffset+i, ps[1].OutOffset+j)
				}
			}
		}
	}

	return s, nil
}

var _ volume.Volume = (*Array)(nil)

// Path is a normalized logical path within a store.
type Path []string

// NewPath normalizes posix for consistent behaviour across storage
// systems: backslashes become forward slashes, leading, trailing and
// repeated slashes collapse away.
func NewPath(posix string) (Path, error) {
	s := strings.ReplaceAll(posix, "\\", "/")
	var p Path
	for _, el := range strings.Split(s, "/") {
		if el != "" {
			p = append(p, el)
		}
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("empty array path %q", posix)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Join returns a new path with elems appended.
func (p Path) Join(elems ...string) Path {
	joined := make(Path, 0, len(p)+len(elems))
	joined = append(joined, p...)
	return append(joined, elems...)
}
