package dbf

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// FieldType is the dBASE type code of a field.
type FieldType byte

const (
	Character FieldType = 'C'
	Date      FieldType = 'D'
	Numeric   FieldType = 'N'
	Float     FieldType = 'F'
	Logical   FieldType = 'L'
)

const (
	maxNumericLength = 20
	dateLength       = 8
	dateLayout       = "20060102"
)

var (
	stringType = reflect.TypeOf("")
	timeType   = reflect.TypeOf(time.Time{})
	floatType  = reflect.TypeOf(float64(0))
	boolType   = reflect.TypeOf(false)
)

// String returns the dBASE name of the type.
func (t FieldType) String() string {
	switch t {
	case Character:
		return "Character"
	case Date:
		return "Date"
	case Numeric:
		return "Numeric"
	case Float:
		return "Float"
	case Logical:
		return "Logical"
	default:
		return "Unknown(" + strconv.QuoteRune(rune(t)) + ")"
	}
}

// GoType returns the type of the non-null values a field of this type
// decodes to, or nil for an unknown type.
func (t FieldType) GoType() reflect.Type {
	switch t {
	case Character:
		return stringType
	case Date:
		return timeType
	case Numeric, Float:
		return floatType
	case Logical:
		return boolType
	default:
		return nil
	}
}

// Field is the definition of one column. Values live in Row, not here.
type Field struct {
	Name          string
	Type          FieldType
	Length        int
	DecimalCount  int
	WorkAreaID    byte
	ProductionMDX bool
}

func (f Field) validate() error {
	if f.Length == 0 {
		return errors.Wrapf(ErrInvalidFieldDefinition, "field %q has zero length", f.Name)
	}
	if f.DecimalCount > f.Length {
		return errors.Wrapf(ErrInvalidFieldDefinition, "field %q has %d decimals for length %d", f.Name, f.DecimalCount, f.Length)
	}

	var ok bool
	switch f.Type {
	case Character:
		ok = f.DecimalCount == 0
	case Date:
		ok = f.Length == dateLength && f.DecimalCount == 0
	case Numeric, Float:
		ok = f.Length <= maxNumericLength
	case Logical:
		ok = f.Length == 1 && f.DecimalCount == 0
	default:
		return errors.Wrapf(ErrUnknownFieldType, "field %q has type code 0x%02X", f.Name, byte(f.Type))
	}
	if !ok {
		return errors.Wrapf(ErrInvalidFieldDefinition, "%s field %q with length %d and %d decimals", f.Type, f.Name, f.Length, f.DecimalCount)
	}
	return nil
}

// decode turns the raw bytes of one field into its value. A nil value with a
// nil error means the bytes were blank or could not be interpreted.
func (f Field) decode(window []byte, text textDecoder) (interface{}, error) {
	if len(window) != f.Length {
		return nil, errors.Wrapf(ErrMalformedRecord, "field %q got %d bytes, want %d", f.Name, len(window), f.Length)
	}
	switch f.Type {
	case Character:
		return strings.TrimSpace(text.convert(window)), nil
	case Date:
		return decodeDate(window), nil
	case Numeric, Float:
		return decodeNumber(window), nil
	case Logical:
		return decodeLogical(window[0]), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFieldType, "field %q", f.Name)
	}
}

func decodeDate(window []byte) interface{} {
	for _, b := range window {
		if b < '0' || b > '9' {
			return nil
		}
	}
	t, err := time.ParseInLocation(dateLayout, string(window), time.UTC)
	if err != nil {
		return nil
	}
	return t
}

func decodeNumber(window []byte) interface{} {
	s := strings.TrimSpace(string(window))
	if !isDecimalText(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return v
}

// decodeDecimal keeps the digits of a number window that float64 cannot hold.
// f is the already decoded value of the same window.
func decodeDecimal(window []byte, f float64) decimal.Decimal {
	s := strings.TrimPrefix(strings.TrimSpace(string(window)), "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NewFromFloat(f)
	}
	return d
}

// isDecimalText accepts [sign] digits [. digits] [e|E [sign] digits] with at
// least one mantissa digit.
func isDecimalText(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func decodeLogical(b byte) interface{} {
	switch b {
	case 'Y', 'y', 'T', 't':
		return true
	case 'N', 'n', 'F', 'f':
		return false
	default:
		return nil
	}
}
