package zarr

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	// arrayMetaKey is the key array metadata is stored under.
	arrayMetaKey = ".zarray"
	// defaultSeparator joins chunk indices into chunk keys.
	defaultSeparator = "."

	// orderRowMajor means the last dimension varies fastest within a chunk.
	orderRowMajor = "C"
	// orderColMajor means the first dimension varies fastest. Stores
	// written this way are recognized but not decodable here.
	orderColMajor = "F"
)

// FormatVersion is the zarr storage specification version this package
// reads and writes.
const FormatVersion = 2

// ArrayMeta is the essential configuration stored as JSON under the
// ".zarray" key, enabling correct interpretation of the chunk data.
type ArrayMeta struct {
	// ZarrFormat is the storage specification version the store adheres to.
	ZarrFormat int `json:"zarr_format"`
	// Shape is the length of each dimension of the array.
	Shape []int `json:"shape"`
	// Chunks is the length of each dimension of a chunk. All chunks of an
	// array share one shape; chunks overhanging the array edge are stored
	// full-size and clipped on read.
	Chunks []int `json:"chunks"`
	// Dtype encodes the sample type following the NumPy typestr format.
	Dtype Dtype `json:"dtype"`
	// Compressor identifies the chunk compression codec, or null for
	// uncompressed chunks.
	Compressor *CompressorMeta `json:"compressor"`
	// FillValue is the sample value of uninitialized array regions;
	// chunks absent from the store read back as this value.
	FillValue FillValue `json:"fill_value"`
	// Order is "C" (row-major) or "F" (column-major).
	Order string `json:"order"`
	// Filters are pre-compression codec passes. None are supported.
	Filters []json.RawMessage `json:"filters"`
	// DimensionSeparator joins chunk indices into keys, "." by default.
	// "/" produces nested directory-like chunk keys.
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

// Validate reports whether the metadata describes a store this package
// can decode.
func (m *ArrayMeta) Validate() error {
	if m.ZarrFormat != FormatVersion {
		return fmt.Errorf("unsupported zarr format version %d", m.ZarrFormat)
	}
	if len(m.Shape) == 0 {
		return fmt.Errorf("array shape is empty")
	}
	if len(m.Chunks) != len(m.Shape) {
		return fmt.Errorf("chunk shape %v does not match array shape %v", m.Chunks, m.Shape)
	}
	for i, d := range m.Shape {
		if d <= 0 {
			return fmt.Errorf("shape dimension %d is %d, must be positive", i, d)
		}
		if m.Chunks[i] <= 0 {
			return fmt.Errorf("chunk dimension %d is %d, must be positive", i, m.Chunks[i])
		}
	}
	if m.Order != orderRowMajor {
		return fmt.Errorf("unsupported chunk order %q", m.Order)
	}
	if len(m.Filters) > 0 {
		return fmt.Errorf("filter codecs are not supported")
	}
	switch m.DimensionSeparator {
	case "", ".", "/":
	default:
		return fmt.Errorf("invalid dimension separator %q", m.DimensionSeparator)
	}
	if _, err := m.Compressor.codec(); err != nil {
		return err
	}
	return nil
}

func (m *ArrayMeta) separator() string {
	if m.DimensionSeparator == "" {
		return defaultSeparator
	}
	return m.DimensionSeparator
}

// chunkSize is the number of samples in one (full) chunk.
func (m *ArrayMeta) chunkSize() int {
	n := 1
	for _, c := range m.Chunks {
		n *= c
	}
	return n
}

// FillValue carries the zarr fill_value field, which may be a JSON
// number, null, or one of the quoted constants "NaN", "Infinity" and
// "-Infinity" for float dtypes.
type FillValue struct {
	Value float64
}

const (
	fillValueNaN              = "NaN"
	fillValueInfinity         = "Infinity"
	fillValueNegativeInfinity = "-Infinity"
)

var (
	_ json.Unmarshaler = (*FillValue)(nil)
	_ json.Marshaler   = (*FillValue)(nil)
)

func (f *FillValue) UnmarshalJSON(d []byte) error {
	if string(d) == "null" {
		f.Value = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(d, &s); err == nil {
		switch s {
		case fillValueNaN:
			f.Value = math.NaN()
		case fillValueInfinity:
			f.Value = math.Inf(1)
		case fillValueNegativeInfinity:
			f.Value = math.Inf(-1)
		default:
			return fmt.Errorf("invalid fill value %q", s)
		}
		return nil
	}
	return json.Unmarshal(d, &f.Value)
}

func (f FillValue) MarshalJSON() ([]byte, error) {
	switch {
	case math.IsNaN(f.Value):
		return json.Marshal(fillValueNaN)
	case math.IsInf(f.Value, 1):
		return json.Marshal(fillValueInfinity)
	case math.IsInf(f.Value, -1):
		return json.Marshal(fillValueNegativeInfinity)
	}
	return json.Marshal(f.Value)
}
