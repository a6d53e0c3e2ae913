package zarr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hoa-vis/heartslice/volume"
)

type saveConfig struct {
	chunks     []int
	dtype      string
	compressor *CompressorMeta
	separator  string
}

// SaveOption adjusts how Save lays an array down.
type SaveOption func(*saveConfig)

// WithChunks sets the chunk shape. It must have one entry per array
// dimension. The default is a single chunk spanning the whole array.
func WithChunks(chunks ...int) SaveOption {
	return func(c *saveConfig) { c.chunks = chunks }
}

// WithDtype sets the on-disk sample encoding as a NumPy typestr.
// The default is "<f8".
func WithDtype(typestr string) SaveOption {
	return func(c *saveConfig) { c.dtype = typestr }
}

// WithCompressor selects the chunk codec by numcodecs id. Level 0 means
// the codec's default level. An empty id stores chunks raw.
func WithCompressor(id string, level int) SaveOption {
	return func(c *saveConfig) {
		if id == "" {
			c.compressor = nil
			return
		}
		c.compressor = &CompressorMeta{ID: id, Level: level}
	}
}

// WithSeparator sets the chunk key dimension separator ("." or "/").
func WithSeparator(sep string) SaveOption {
	return func(c *saveConfig) { c.separator = sep }
}

// Save writes g to the store under path as a zarr v2 array: the
// ".zarray" metadata document plus one compressed chunk per grid cell.
// Edge chunks are padded to full chunk shape with zeros, per the format.
func Save(store Store, path string, g *volume.Grid, opts ...SaveOption) error {
	shape := g.Shape()

	cfg := saveConfig{
		chunks:     shape,
		dtype:      "<f8",
		compressor: &CompressorMeta{ID: "zlib"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	dt, err := ParseDtype(cfg.dtype)
	if err != nil {
		return err
	}

	meta := &ArrayMeta{
		ZarrFormat:         FormatVersion,
		Shape:              shape,
		Chunks:             append([]int{}, cfg.chunks...),
		Dtype:              dt,
		Compressor:         cfg.compressor,
		Order:              orderRowMajor,
		DimensionSeparator: cfg.separator,
	}
	if err := meta.Validate(); err != nil {
		return err
	}
	codec, err := meta.Compressor.codec()
	if err != nil {
		return err
	}

	p, err := NewPath(path)
	if err != nil {
		return err
	}

	doc, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return err
	}
	if err := store.Put(p.Join(arrayMetaKey).String(), bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("writing %s: %w", arrayMetaKey, err)
	}

	level := 0
	if meta.Compressor != nil {
		level = meta.Compressor.Level
	}

	data := g.Data()
	srcStrides := volume.Strides(shape)
	chunkStrides := volume.Strides(meta.Chunks)
	grid := gridShape(shape, meta.Chunks)
	chunkVals := make([]float64, meta.chunkSize())

	coords := make([]int, len(grid))
	for ok := true; ok; ok = nextCoords(coords, grid) {
		for i := range chunkVals {
			chunkVals[i] = 0
		}
		gatherRegion(chunkVals, data, chunkStrides, srcStrides, project(coords, shape, meta.Chunks), 0, 0, 0)

		raw, err := meta.Dtype.Encode(chunkVals, make([]byte, 0, len(chunkVals)*meta.Dtype.ByteSize))
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		w, err := codec.Compress(&buf, level)
		if err != nil {
			return err
		}
		if _, err := w.Write(raw); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}

		key := p.Join(chunkKey(coords, meta.separator())).String()
		if err := store.Put(key, &buf); err != nil {
			return fmt.Errorf("writing chunk %s: %w", key, err)
		}
	}

	return nil
}

// gatherRegion is the inverse of copyRegion: it pulls the in-bounds
// region for a chunk out of the source array into the chunk buffer.
func gatherRegion(dst, src []float64, dstStrides, srcStrides []int, ps []chunkDimProjection, dim, dstOff, srcOff int) {
	p := ps[dim]
	if dim == len(ps)-1 {
		start := srcOff + (p.OutOffset * srcStrides[dim])
		copy(dst[dstOff:dstOff+p.N], src[start:start+p.N])
		return
	}
	for i := 0; i < p.N; i++ {
		gatherRegion(dst, src, dstStrides, srcStrides, ps, dim+1,
			dstOff+i*dstStrides[dim],
			srcOff+(p.OutOffset+i)*srcStrides[dim])
	}
}
