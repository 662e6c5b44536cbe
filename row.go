package dbf

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Row holds the values decoded from one active record, indexed like the
// table's fields. A nil value is a null.
type Row struct {
	fields []Field
	values []interface{}
	// exact holds the decimal text of numeric values, which may carry more
	// digits than the float64 in values.
	exact []decimal.Decimal
}

func (row *Row) Len() int {
	return len(row.values)
}

// Value returns the value at position i, or nil for a null or an
// out-of-range position.
func (row *Row) Value(i int) interface{} {
	if i < 0 || i >= len(row.values) {
		return nil
	}
	return row.values[i]
}

// Values returns a copy of all values.
func (row *Row) Values() []interface{} {
	return append([]interface{}(nil), row.values...)
}

func (row *Row) IsNull(i int) bool {
	return row.Value(i) == nil
}

// Type returns the declared type of the field at position i.
func (row *Row) Type(i int) FieldType {
	if i < 0 || i >= len(row.fields) {
		return 0
	}
	return row.fields[i].Type
}

func (row *Row) String(i int) string {
	s, _ := row.Value(i).(string)
	return s
}

func (row *Row) Float(i int) (float64, bool) {
	v, ok := row.Value(i).(float64)
	return v, ok
}

func (row *Row) Bool(i int) (bool, bool) {
	v, ok := row.Value(i).(bool)
	return v, ok
}

func (row *Row) Time(i int) (time.Time, bool) {
	v, ok := row.Value(i).(time.Time)
	return v, ok
}

// Decimal returns a numeric value rounded to the field's decimal count. It is
// decoded from the stored digits, not from the float64 value.
func (row *Row) Decimal(i int) (decimal.Decimal, bool) {
	if _, ok := row.Float(i); !ok {
		return decimal.Decimal{}, false
	}
	return row.exact[i].Round(int32(row.fields[i].DecimalCount)), true
}

// Map returns the values keyed by field name. Later duplicates win.
func (row *Row) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(row.values))
	for i, f := range row.fields {
		m[f.Name] = row.values[i]
	}
	return m
}

// Scan copies the row into the struct pointed to by v. Struct fields are
// matched by their `dbf` tag; untagged fields and nulls are left alone.
func (row *Row) Scan(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("Scan requires a non-nil pointer to a struct")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("Scan requires a pointer to a struct, not a %s", rv.Kind())
	}

	modelColumnIndex := make(map[string][]int)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if !rt.Field(i).IsExported() {
			continue
		}
		if column := rt.Field(i).Tag.Get("dbf"); column != "" {
			modelColumnIndex[column] = append(modelColumnIndex[column], i)
		}
	}

	for i, f := range row.fields {
		if row.values[i] == nil {
			continue
		}
		for _, fieldIndex := range modelColumnIndex[f.Name] {
			dst := rv.Field(fieldIndex)
			value := row.values[i]
			if isDecimalType(dst.Type()) {
				if d, ok := row.Decimal(i); ok {
					value = d
				}
			}
			if err := assign(dst, value); err != nil {
				return errors.WithMessagef(err, "column %s", f.Name)
			}
		}
	}
	return nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func isDecimalType(t reflect.Type) bool {
	return t == decimalType || (t.Kind() == reflect.Ptr && t.Elem() == decimalType)
}

func assign(dst reflect.Value, value interface{}) error {
	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	src := reflect.ValueOf(value)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	switch val := value.(type) {
	case string:
		if dst.Kind() == reflect.String {
			dst.SetString(val)
			return nil
		}
	case float64:
		switch dst.Kind() {
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(val)
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
			if val != math.Trunc(val) || val < math.MinInt64 || val >= math.MaxInt64 || dst.OverflowInt(int64(val)) {
				return fmt.Errorf("%v does not fit in %s", val, dst.Type())
			}
			dst.SetInt(int64(val))
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if val < 0 || val != math.Trunc(val) || val >= math.MaxUint64 || dst.OverflowUint(uint64(val)) {
				return fmt.Errorf("%v does not fit in %s", val, dst.Type())
			}
			dst.SetUint(uint64(val))
			return nil
		}
		if dst.Type() == decimalType {
			dst.Set(reflect.ValueOf(decimal.NewFromFloat(val)))
			return nil
		}
	case bool:
		if dst.Kind() == reflect.Bool {
			dst.SetBool(val)
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", value, dst.Type())
}
