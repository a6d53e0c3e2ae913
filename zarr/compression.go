package zarr

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// CompressorMeta identifies a chunk compression codec in array metadata.
// The numcodecs fields beyond id and level are carried through so that
// metadata round-trips, but only id and level influence decoding.
type CompressorMeta struct {
	ID      string `json:"id"`
	Level   int    `json:"level,omitempty"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// Codec compresses and decompresses chunk payloads.
type Codec interface {
	ID() string
	Decompress(r io.Reader) (io.ReadCloser, error)
	Compress(w io.Writer, level int) (io.WriteCloser, error)
}

var codecs = map[string]Codec{
	"zlib": zlibCodec{},
	"gzip": gzipCodec{},
	"zstd": zstdCodec{},
}

// codec resolves the metadata to a registered codec. A nil receiver
// (JSON null compressor) means chunks are stored raw.
func (m *CompressorMeta) codec() (Codec, error) {
	if m == nil {
		return rawCodec{}, nil
	}
	c, ok := codecs[m.ID]
	if !ok {
		return nil, fmt.Errorf("unsupported compressor id %q", m.ID)
	}
	return c, nil
}

type rawCodec struct{}

func (rawCodec) ID() string { return "" }

func (rawCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (rawCodec) Compress(w io.Writer, level int) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type zlibCodec struct{}

func (zlibCodec) ID() string { return "zlib" }

func (zlibCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

func (zlibCodec) Compress(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		return zlib.NewWriter(w), nil
	}
	return zlib.NewWriterLevel(w, level)
}

type gzipCodec struct{}

func (gzipCodec) ID() string { return "gzip" }

func (gzipCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (gzipCodec) Compress(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		return gzip.NewWriter(w), nil
	}
	return gzip.NewWriterLevel(w, level)
}

type zstdCodec struct{}

func (zstdCodec) ID() string { return "zstd" }

func (zstdCodec) Decompress(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

func (zstdCodec) Compress(w io.Writer, level int) (io.WriteCloser, error) {
	if level == 0 {
		return zstd.NewWriter(w)
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
}
