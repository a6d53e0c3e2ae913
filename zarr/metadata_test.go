package zarr

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const specExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataUnmarshal(t *testing.T) {
	m := &ArrayMeta{}
	require.NoError(t, json.Unmarshal([]byte(specExample), m))

	require.Equal(t, []int{10000, 10000}, m.Shape)
	require.Equal(t, []int{1000, 1000}, m.Chunks)
	require.Equal(t, "<f8", m.Dtype.String())
	require.Equal(t, "blosc", m.Compressor.ID)
	require.True(t, math.IsNaN(m.FillValue.Value))

	// parseable, but blosc and filter codecs are beyond this package
	require.ErrorContains(t, m.Validate(), "filter codecs")
	m.Filters = nil
	require.ErrorContains(t, m.Validate(), "unsupported compressor")
}

func TestMetadataValidate(t *testing.T) {
	valid := func() *ArrayMeta {
		return &ArrayMeta{
			ZarrFormat: 2,
			Shape:      []int{6, 4},
			Chunks:     []int{2, 2},
			Dtype:      Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8},
			Order:      "C",
		}
	}
	require.NoError(t, valid().Validate())

	m := valid()
	m.ZarrFormat = 3
	require.ErrorContains(t, m.Validate(), "format version")

	m = valid()
	m.Chunks = []int{2}
	require.ErrorContains(t, m.Validate(), "does not match array shape")

	m = valid()
	m.Order = "F"
	require.ErrorContains(t, m.Validate(), "chunk order")

	m = valid()
	m.Shape[0] = 0
	require.ErrorContains(t, m.Validate(), "must be positive")

	m = valid()
	m.DimensionSeparator = "-"
	require.ErrorContains(t, m.Validate(), "separator")
}

func TestFillValueVariants(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want float64
	}{
		{`null`, 0},
		{`0`, 0},
		{`42.5`, 42.5},
		{`"Infinity"`, math.Inf(1)},
		{`"-Infinity"`, math.Inf(-1)},
	} {
		var f FillValue
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &f), tc.raw)
		require.Equal(t, tc.want, f.Value, tc.raw)
	}

	var f FillValue
	require.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &f))
}

func TestParseDtype(t *testing.T) {
	dt, err := ParseDtype("|u1")
	require.NoError(t, err)
	require.Equal(t, BTUnsigned, dt.BasicType)
	require.Equal(t, 1, dt.ByteSize)

	dt, err = ParseDtype(">i4")
	require.NoError(t, err)
	require.Equal(t, BOBigEndian, dt.ByteOrder)
	require.Equal(t, "int", dt.BasicType.Human())

	// python json encoders sometimes HTML-escape the order character
	dt, err = ParseDtype("&lt;f8")
	require.NoError(t, err)
	require.Equal(t, "<f8", dt.String())

	for _, bad := range []string{"", "<f", "<x4", "?f8", "<f3", "|u2", "|b2"} {
		_, err := ParseDtype(bad)
		require.Error(t, err, "dtype %q", bad)
	}
}

func TestDtypeEncodeDecode(t *testing.T) {
	vals := []float64{0, 1, 127, 255}
	dt, err := ParseDtype("|u1")
	require.NoError(t, err)

	raw, err := dt.Encode(vals, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 127, 255}, raw)

	back, err := dt.Decode(raw, nil)
	require.NoError(t, err)
	require.Equal(t, vals, back)

	dt, err = ParseDtype(">f4")
	require.NoError(t, err)
	raw, err = dt.Encode([]float64{-2.5, 0.5}, nil)
	require.NoError(t, err)
	back, err = dt.Decode(raw, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{-2.5, 0.5}, back)

	_, err = dt.Decode(raw[:3], nil)
	require.ErrorContains(t, err, "whole number of samples")
}
