package dbf

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSpec(f fieldSpec) (Field, error) {
	return parseFieldDescriptor(descriptorBytes(f), textDecoder{})
}

func TestParseFieldDescriptor(t *testing.T) {
	field, err := parseSpec(fieldSpec{name: "Bool Field", typ: 'L', length: 1, workArea: 7, mdx: 1})
	require.NoError(t, err)
	assert.Equal(t, Field{
		Name:          "Bool Field",
		Type:          Logical,
		Length:        1,
		WorkAreaID:    7,
		ProductionMDX: true,
	}, field)
	assert.Equal(t, "Logical", field.Type.String())
	assert.Equal(t, reflect.TypeOf(false), field.Type.GoType())
}

func TestFieldNameStopsAtFirstNul(t *testing.T) {
	buf := descriptorBytes(fieldSpec{name: "AB", typ: 'C', length: 1})
	copy(buf[3:11], "GARBAGE")
	field, err := parseFieldDescriptor(buf, textDecoder{})
	require.NoError(t, err)
	assert.Equal(t, "AB", field.Name)

	field, err = parseSpec(fieldSpec{name: "ELEVENCHARS", typ: 'C', length: 1})
	require.NoError(t, err)
	assert.Equal(t, "ELEVENCHARS", field.Name)
}

func TestFieldDescriptorSize(t *testing.T) {
	buf := descriptorBytes(fieldSpec{name: "A", typ: 'C', length: 1})
	for _, n := range []int{0, 31, 33} {
		b := make([]byte, n)
		copy(b, buf)
		_, err := parseFieldDescriptor(b, textDecoder{})
		assert.ErrorIs(t, err, ErrMalformedHeader, "%d bytes", n)
	}
}

func TestFieldTypes(t *testing.T) {
	for _, tt := range []struct {
		code   byte
		typ    FieldType
		name   string
		goType reflect.Type
		length byte
	}{
		{'C', Character, "Character", reflect.TypeOf(""), 255},
		{'D', Date, "Date", reflect.TypeOf(time.Time{}), 8},
		{'N', Numeric, "Numeric", reflect.TypeOf(float64(0)), 20},
		{'F', Float, "Float", reflect.TypeOf(float64(0)), 20},
		{'L', Logical, "Logical", reflect.TypeOf(false), 1},
	} {
		field, err := parseSpec(fieldSpec{name: "F", typ: tt.code, length: tt.length})
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.typ, field.Type)
		assert.Equal(t, tt.name, field.Type.String())
		assert.Equal(t, tt.goType, field.Type.GoType())
	}
}

func TestUnknownFieldType(t *testing.T) {
	for _, code := range []byte{'M', 'B', 'I', '@', 'c', 0} {
		_, err := parseSpec(fieldSpec{name: "F", typ: code, length: 10})
		assert.ErrorIs(t, err, ErrUnknownFieldType, "code %q", code)
	}
	assert.Nil(t, FieldType('M').GoType())
}

func TestZeroLengthAlwaysFails(t *testing.T) {
	for _, code := range []byte{'C', 'D', 'N', 'F', 'L'} {
		_, err := parseSpec(fieldSpec{name: "F", typ: code, length: 0})
		assert.ErrorIs(t, err, ErrInvalidFieldDefinition, "type %c", code)
	}
}

func TestDecimalCountAboveLength(t *testing.T) {
	_, err := parseSpec(fieldSpec{name: "F", typ: 'N', length: 5, decimals: 6})
	assert.ErrorIs(t, err, ErrInvalidFieldDefinition)

	field, err := parseSpec(fieldSpec{name: "F", typ: 'N', length: 5, decimals: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, field.DecimalCount)
}

func TestFieldConstraints(t *testing.T) {
	for _, tt := range []struct {
		code     byte
		length   byte
		decimals byte
		ok       bool
	}{
		{'C', 1, 0, true},
		{'C', 254, 0, true},
		{'C', 10, 2, false},
		{'D', 8, 0, true},
		{'D', 7, 0, false},
		{'D', 9, 0, false},
		{'D', 8, 1, false},
		{'N', 20, 4, true},
		{'N', 21, 0, false},
		{'N', 255, 0, false},
		{'F', 1, 0, true},
		{'F', 20, 10, true},
		{'F', 21, 0, false},
		{'L', 1, 0, true},
		{'L', 2, 0, false},
		{'L', 1, 1, false},
	} {
		_, err := parseSpec(fieldSpec{name: "F", typ: tt.code, length: tt.length, decimals: tt.decimals})
		if tt.ok {
			assert.NoError(t, err, "%c(%d,%d)", tt.code, tt.length, tt.decimals)
		} else {
			assert.ErrorIs(t, err, ErrInvalidFieldDefinition, "%c(%d,%d)", tt.code, tt.length, tt.decimals)
		}
	}
}

func TestDecodeCharacter(t *testing.T) {
	field := Field{Name: "C", Type: Character, Length: 8}
	for in, want := range map[string]string{
		"  abc   ": "abc",
		"abcdefgh": "abcdefgh",
		"        ": "",
		"\tx y \r\n ": "x y",
	} {
		v, err := field.decode([]byte(in), textDecoder{})
		require.NoError(t, err)
		assert.Equal(t, want, v, "%q", in)
	}
}

func TestDecodeDate(t *testing.T) {
	field := Field{Name: "D", Type: Date, Length: 8}
	v, err := field.decode([]byte("20151021"), textDecoder{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, time.October, 21, 0, 0, 0, 0, time.UTC), v)

	for _, in := range []string{"        ", "2015102 ", "20150230", "20151301", "+2015102", "abcdefgh", "00000000"} {
		v, err := field.decode([]byte(in), textDecoder{})
		require.NoError(t, err)
		assert.Nil(t, v, "%q", in)
	}
}

func TestDecodeNumber(t *testing.T) {
	for _, typ := range []FieldType{Numeric, Float} {
		field := Field{Name: "N", Type: typ, Length: 10}
		for in, want := range map[string]interface{}{
			"      12.5": 12.5,
			"-3        ": -3.0,
			"  +0.25   ": 0.25,
			"      1e3 ": 1000.0,
			"       .5 ": 0.5,
			"       5. ": 5.0,
			"          ": nil,
			"**********": nil,
			"1.2.3     ": nil,
			"       NaN": nil,
			"      -Inf": nil,
			"    0x1p-2": nil,
			"     1e   ": nil,
			"     1 000": nil,
			"         -": nil,
		} {
			v, err := field.decode([]byte(in), textDecoder{})
			require.NoError(t, err)
			assert.Equal(t, want, v, "%s %q", typ, in)
		}
	}
}

func TestDecodeLogicalIsTotal(t *testing.T) {
	field := Field{Name: "L", Type: Logical, Length: 1}
	for b := 0; b < 256; b++ {
		v, err := field.decode([]byte{byte(b)}, textDecoder{})
		require.NoError(t, err)
		switch byte(b) {
		case 'Y', 'y', 'T', 't':
			assert.Equal(t, true, v, "%q", b)
		case 'N', 'n', 'F', 'f':
			assert.Equal(t, false, v, "%q", b)
		default:
			assert.Nil(t, v, "%q", b)
		}
	}
}

func TestDecodeWindowLengthMismatch(t *testing.T) {
	field := Field{Name: "C", Type: Character, Length: 4}
	_, err := field.decode([]byte("abc"), textDecoder{})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestTextDecoder(t *testing.T) {
	_, err := newTextDecoder("no-such-charset")
	assert.Error(t, err)

	dec, err := newTextDecoder("utf-8")
	require.NoError(t, err)
	assert.Equal(t, "café", dec.convert([]byte("café")))

	assert.Equal(t, "raw", textDecoder{}.convert([]byte("raw")))
}
