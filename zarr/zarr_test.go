package zarr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoa-vis/heartslice/volume"
)

// testGrid builds a 5x4x3 volume with distinct deterministic samples.
func testGrid(t *testing.T) *volume.Grid {
	t.Helper()
	g := volume.NewGrid(5, 4, 3)
	for i := 0; i < 5; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 3; k++ {
				g.Set(float64((i*47+j*13+k*7)%251), i, j, k)
			}
		}
	}
	return g
}

func requireSameGrid(t *testing.T, want, got *volume.Grid) {
	t.Helper()
	require.Equal(t, want.Shape(), got.Shape())
	require.Equal(t, want.Data(), got.Data())
}

func TestSaveOpenReadRoundTrip(t *testing.T) {
	g := testGrid(t)

	s := NewMemoryStore()
	// 2x3x2 chunks do not divide 5x4x3, so every edge chunk is clipped
	err := Save(s, "vol.zarr", g, WithChunks(2, 3, 2), WithDtype("|u1"), WithCompressor("zlib", 9))
	require.NoError(t, err)

	a, err := Open(s, "vol.zarr", ModeRead)
	require.NoError(t, err)
	require.Equal(t, []int{5, 4, 3}, a.Shape())
	require.Equal(t, []int{2, 3, 2}, a.Meta().Chunks)

	got, err := a.Read()
	require.NoError(t, err)
	requireSameGrid(t, g, got)
}

func TestSaveRoundTripFloatZstd(t *testing.T) {
	g := volume.NewGrid(3, 3, 4)
	for i, v := range []float64{-1.5, 0, 2.25, 1e6} {
		g.Set(v, i%3, (i+1)%3, i)
	}

	s := NewMemoryStore()
	err := Save(s, "floats", g, WithChunks(2, 2, 2), WithDtype("<f8"), WithCompressor("zstd", 3))
	require.NoError(t, err)

	a, err := Open(s, "floats", ModeRead)
	require.NoError(t, err)
	got, err := a.Read()
	require.NoError(t, err)
	requireSameGrid(t, g, got)
}

func TestSaveRoundTripBigEndianGzip(t *testing.T) {
	g := volume.NewGrid(4, 2, 2)
	for i := 0; i < g.Len(); i++ {
		g.Data()[i] = float64(i*3 - 7)
	}

	s := NewMemoryStore()
	err := Save(s, "ints", g, WithChunks(3, 2, 1), WithDtype(">i4"), WithCompressor("gzip", 0))
	require.NoError(t, err)

	a, err := Open(s, "ints", ModeRead)
	require.NoError(t, err)
	got, err := a.Read()
	require.NoError(t, err)
	requireSameGrid(t, g, got)
}

func TestSaveRawNestedSeparator(t *testing.T) {
	g := testGrid(t)

	s := NewMemoryStore()
	err := Save(s, "raw", g, WithChunks(5, 4, 2), WithDtype("<u2"), WithCompressor("", 0), WithSeparator("/"))
	require.NoError(t, err)

	// nested keys: one chunk per z-block
	_, err = s.Get("raw/0/0/0")
	require.NoError(t, err)
	_, err = s.Get("raw/0/0/1")
	require.NoError(t, err)

	a, err := Open(s, "raw", ModeRead)
	require.NoError(t, err)
	got, err := a.Read()
	require.NoError(t, err)
	requireSameGrid(t, g, got)
}

func TestLocalStoreRoundTrip(t *testing.T) {
	g := testGrid(t)

	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Save(s, "vol.zarr", g, WithChunks(4, 4, 4), WithDtype("|u1")))

	a, err := Open(s, "vol.zarr", ModeRead)
	require.NoError(t, err)
	got, err := a.Read()
	require.NoError(t, err)
	requireSameGrid(t, g, got)
}

func TestZSliceMatchesMaterialized(t *testing.T) {
	g := testGrid(t)

	s := NewMemoryStore()
	require.NoError(t, Save(s, "vol", g, WithChunks(2, 3, 2), WithDtype("<f4"), WithCompressor("zlib", 0)))

	a, err := Open(s, "vol", ModeRead)
	require.NoError(t, err)

	full, err := a.Read()
	require.NoError(t, err)

	for z := 0; z < 3; z++ {
		lazy, err := a.ZSlice(z)
		require.NoError(t, err)
		eager, err := full.ZSlice(z)
		require.NoError(t, err)
		require.Equal(t, eager.Data(), lazy.Data(), "z=%d", z)
	}
}

func TestZSliceOutOfRange(t *testing.T) {
	g := testGrid(t)

	s := NewMemoryStore()
	require.NoError(t, Save(s, "vol", g, WithDtype("|u1")))

	a, err := Open(s, "vol", ModeRead)
	require.NoError(t, err)

	_, err = a.ZSlice(3)
	require.ErrorContains(t, err, "out of range")
	_, err = a.ZSlice(-1)
	require.ErrorContains(t, err, "out of range")
}

func TestOpenMissingMetadata(t *testing.T) {
	s := NewMemoryStore()
	_, err := Open(s, "nothing/here", ModeRead)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenWriteModeRejected(t *testing.T) {
	s := NewMemoryStore()
	_, err := Open(s, "vol", ModeWrite)
	require.ErrorContains(t, err, "read-only")
}

func TestOpenUnknownCompressor(t *testing.T) {
	const meta = `{
		"zarr_format": 2,
		"shape": [4, 4, 2],
		"chunks": [2, 2, 2],
		"dtype": "|u1",
		"compressor": {"id": "blosc", "cname": "zstd", "clevel": 9, "shuffle": 1},
		"fill_value": 0,
		"order": "C",
		"filters": null
	}`
	s := NewMemoryStore()
	require.NoError(t, s.Put("vol/.zarray", strings.NewReader(meta)))

	_, err := Open(s, "vol", ModeRead)
	require.ErrorContains(t, err, `unsupported compressor id "blosc"`)
}

func TestMissingChunksReadAsFillValue(t *testing.T) {
	const meta = `{
		"zarr_format": 2,
		"shape": [4, 4, 2],
		"chunks": [2, 2, 2],
		"dtype": "|u1",
		"compressor": null,
		"fill_value": 7,
		"order": "C",
		"filters": null
	}`
	s := NewMemoryStore()
	require.NoError(t, s.Put("vol/.zarray", strings.NewReader(meta)))
	// only the chunk at the origin exists
	require.NoError(t, s.Put("vol/0.0.0", strings.NewReader("\x01\x01\x01\x01\x01\x01\x01\x01")))

	a, err := Open(s, "vol", ModeRead)
	require.NoError(t, err)
	g, err := a.Read()
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 2; k++ {
				want := 7.0
				if i < 2 && j < 2 {
					want = 1.0
				}
				require.Equal(t, want, g.At(i, j, k), "at %d,%d,%d", i, j, k)
			}
		}
	}
}

func TestStoreMissingKey(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)

	l, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	_, err = l.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPathNormalization(t *testing.T) {
	p, err := NewPath("\\foo//bar/")
	require.NoError(t, err)
	require.Equal(t, "foo/bar", p.String())

	_, err = NewPath("///")
	require.Error(t, err)
}

func TestPathJoinDoesNotAlias(t *testing.T) {
	p, err := NewPath("a/b")
	require.NoError(t, err)
	first := p.Join("c")
	second := p.Join("d")
	require.Equal(t, "a/b/c", first.String())
	require.Equal(t, "a/b/d", second.String())
}
