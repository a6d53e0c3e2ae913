package zarr

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dtype describes array sample encoding as a NumPy array protocol type
// string (typestr). The format consists of 3 parts:
//   - one character for the byte order of the data:
//     "<": little-endian; ">": big-endian; "|": not relevant
//   - one character code for the basic type:
//     "b": boolean, "i": integer, "u": unsigned integer, "f": floating point
//   - an integer giving the number of bytes the type uses.
//
// Byte order is optional in the array protocol but MUST be specified in
// the zarr format. Complex, datetime, string and void types exist in the
// protocol but are not decodable here.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

func ParseDtype(s string) (dt Dtype, err error) {
	// bug in python implementation uses HTML escape sequences when serializing JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) < 3 {
		return dt, fmt.Errorf("invalid dtype string: %q is too short", s)
	}

	dt.ByteOrder, err = ParseByteOrder(rune(s[0]))
	if err != nil {
		return dt, err
	}

	dt.BasicType, err = ParseBasicType(rune(s[1]))
	if err != nil {
		return dt, err
	}

	size, err := strconv.ParseInt(s[2:], 10, 0)
	if err != nil {
		return dt, fmt.Errorf("invalid dtype byte size in %q: %w", s, err)
	}
	dt.ByteSize = int(size)

	switch dt.BasicType {
	case BTBoolean:
		if dt.ByteSize != 1 {
			return dt, fmt.Errorf("invalid dtype %q: booleans are single bytes", s)
		}
	case BTInteger, BTUnsigned:
		switch dt.ByteSize {
		case 1, 2, 4, 8:
		default:
			return dt, fmt.Errorf("invalid dtype %q: unsupported integer size %d", s, dt.ByteSize)
		}
	case BTFloatingPoint:
		if dt.ByteSize != 4 && dt.ByteSize != 8 {
			return dt, fmt.Errorf("invalid dtype %q: unsupported float size %d", s, dt.ByteSize)
		}
	}

	if dt.ByteSize > 1 && dt.ByteOrder == BONotRelevant {
		return dt, fmt.Errorf("invalid dtype %q: multi-byte types need an explicit byte order", s)
	}

	return dt, nil
}

func (dt Dtype) String() string {
	return fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

func (dt Dtype) order() binary.ByteOrder {
	if dt.ByteOrder == BOBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Decode interprets raw as consecutive samples and appends them to out
// as float64 values. len(raw) must be a whole number of samples.
func (dt Dtype) Decode(raw []byte, out []float64) ([]float64, error) {
	if len(raw)%dt.ByteSize != 0 {
		return nil, fmt.Errorf("dtype %s: %d bytes is not a whole number of samples", dt, len(raw))
	}
	bo := dt.order()
	for i := 0; i < len(raw); i += dt.ByteSize {
		b := raw[i : i+dt.ByteSize]
		var v float64
		switch dt.BasicType {
		case BTBoolean:
			if b[0] != 0 {
				v = 1
			}
		case BTUnsigned:
			switch dt.ByteSize {
			case 1:
				v = float64(b[0])
			case 2:
				v = float64(bo.Uint16(b))
			case 4:
				v = float64(bo.Uint32(b))
			case 8:
				v = float64(bo.Uint64(b))
			}
		case BTInteger:
			switch dt.ByteSize {
			case 1:
				v = float64(int8(b[0]))
			case 2:
				v = float64(int16(bo.Uint16(b)))
			case 4:
				v = float64(int32(bo.Uint32(b)))
			case 8:
				v = float64(int64(bo.Uint64(b)))
			}
		case BTFloatingPoint:
			switch dt.ByteSize {
			case 4:
				v = float64(math.Float32frombits(bo.Uint32(b)))
			case 8:
				v = math.Float64frombits(bo.Uint64(b))
			}
		default:
			return nil, fmt.Errorf("dtype %s: decoding not supported", dt)
		}
		out = append(out, v)
	}
	return out, nil
}

// Encode appends the byte representation of each sample to out.
// Integer kinds truncate toward zero, matching a numpy astype cast.
func (dt Dtype) Encode(vals []float64, out []byte) ([]byte, error) {
	bo := dt.order()
	var scratch [8]byte
	for _, v := range vals {
		b := scratch[:dt.ByteSize]
		switch dt.BasicType {
		case BTBoolean:
			b[0] = 0
			if v != 0 {
				b[0] = 1
			}
		case BTUnsigned:
			switch dt.ByteSize {
			case 1:
				b[0] = uint8(v)
			case 2:
				bo.PutUint16(b, uint16(v))
			case 4:
				bo.PutUint32(b, uint32(v))
			case 8:
				bo.PutUint64(b, uint64(v))
			}
		case BTInteger:
			switch dt.ByteSize {
			case 1:
				b[0] = byte(int8(v))
			case 2:
				bo.PutUint16(b, uint16(int16(v)))
			case 4:
				bo.PutUint32(b, uint32(int32(v)))
			case 8:
				bo.PutUint64(b, uint64(int64(v)))
			}
		case BTFloatingPoint:
			switch dt.ByteSize {
			case 4:
				bo.PutUint32(b, math.Float32bits(float32(v)))
			case 8:
				bo.PutUint64(b, math.Float64bits(v))
			}
		default:
			return nil, fmt.Errorf("dtype %s: encoding not supported", dt)
		}
		out = append(out, b...)
	}
	return out, nil
}

type ByteOrder rune

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order: %q", r)
	}
	return o, nil
}

type BasicType rune

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
}

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}
