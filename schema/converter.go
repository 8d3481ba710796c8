package schema

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ConvertFunc converts a driver value into T.
type ConvertFunc[T any] func(value any) (T, error)

type convertFunc func(src reflect.Value, dest reflect.Type) (reflect.Value, error)

type converterKey struct {
	dest reflect.Type
	src  reflect.Type
}

var (
	converterCache sync.Map // converterKey -> convertFunc

	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// timeLayouts are tried in order when a time arrives as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// GetConverter returns a converter into T.
func GetConverter[T any]() ConvertFunc[T] {
	dest := reflect.TypeOf((*T)(nil)).Elem()
	return func(value any) (T, error) {
		var zero T
		v, err := Convert(value, dest)
		if err != nil {
			return zero, err
		}
		out, _ := v.Interface().(T)
		return out, nil
	}
}

// Convert converts value into a value of type dest. A nil value yields the
// zero dest. Pointer destinations are allocated; sql.Scanner destinations
// scan the value; driver.Valuer sources are unwrapped first.
func Convert(value any, dest reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(dest), nil
	}

	if dest.Kind() != reflect.Ptr && dest.Kind() != reflect.Interface && reflect.PointerTo(dest).Implements(scannerType) {
		out := reflect.New(dest)
		if err := out.Interface().(sql.Scanner).Scan(value); err != nil {
			return reflect.Value{}, err
		}
		return out.Elem(), nil
	}

	src := reflect.ValueOf(value)
	for src.Kind() == reflect.Ptr {
		if src.IsNil() {
			return reflect.Zero(dest), nil
		}
		if src.Type().AssignableTo(dest) {
			return src, nil
		}
		src = src.Elem()
	}

	if dest.Kind() == reflect.Ptr {
		inner, err := Convert(src.Interface(), dest.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(dest.Elem())
		out.Elem().Set(inner)
		return out, nil
	}

	if src.Type().AssignableTo(dest) {
		out := reflect.New(dest).Elem()
		out.Set(src)
		return out, nil
	}

	if src.Type().Implements(valuerType) {
		dv, err := src.Interface().(driver.Valuer).Value()
		if err != nil {
			return reflect.Value{}, err
		}
		return Convert(dv, dest)
	}

	key := converterKey{dest: dest, src: src.Type()}
	if fn, ok := converterCache.Load(key); ok {
		return fn.(convertFunc)(src, dest)
	}
	fn, err := buildConverter(dest, src.Type())
	if err != nil {
		return reflect.Value{}, err
	}
	converterCache.Store(key, fn)
	return fn(src, dest)
}

func buildConverter(dest, src reflect.Type) (convertFunc, error) {
	switch dest.Kind() {
	case reflect.String:
		return toString, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return toInt, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return toUint, nil
	case reflect.Float32, reflect.Float64:
		return toFloat, nil
	case reflect.Bool:
		return toBool, nil
	case reflect.Struct:
		if dest == timeType {
			return toTime, nil
		}
	case reflect.Slice:
		if dest.Elem().Kind() == reflect.Uint8 && (src.Kind() == reflect.String || isBytes(src)) {
			return func(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
				b := append([]byte(nil), textOf(src)...)
				return reflect.ValueOf(b).Convert(dest), nil
			}, nil
		}
	}

	if src.ConvertibleTo(dest) {
		return func(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
			return src.Convert(dest), nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported conversion from %s to %s", src, dest)
}

func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func isText(v reflect.Value) bool {
	return v.Kind() == reflect.String || isBytes(v.Type())
}

func textOf(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return string(v.Bytes())
}

func unsupported(src reflect.Value, dest reflect.Type) error {
	return fmt.Errorf("unsupported conversion from %s to %s", src.Type(), dest)
}

func toString(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
	var s string
	switch {
	case isText(src):
		s = textOf(src)
	case src.Type() == timeType:
		s = src.Interface().(time.Time).Format(time.RFC3339Nano)
	default:
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			s = strconv.FormatInt(src.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			s = strconv.FormatUint(src.Uint(), 10)
		case reflect.Float32:
			s = strconv.FormatFloat(src.Float(), 'f', -1, 32)
		case reflect.Float64:
			s = strconv.FormatFloat(src.Float(), 'f', -1, 64)
		case reflect.Bool:
			s = strconv.FormatBool(src.Bool())
		default:
			s = fmt.Sprint(src.Interface())
		}
	}
	return reflect.ValueOf(s).Convert(dest), nil
}

func toInt(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
	var n int64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := src.Uint()
		if u > math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", u, dest)
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("value %v is not representable as %s", f, dest)
		}
		n = int64(f)
	case reflect.Bool:
		if src.Bool() {
			n = 1
		}
	default:
		if !isText(src) {
			return reflect.Value{}, unsupported(src, dest)
		}
		var err error
		if n, err = strconv.ParseInt(strings.TrimSpace(textOf(src)), 10, 64); err != nil {
			return reflect.Value{}, err
		}
	}

	out := reflect.New(dest).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, dest)
	}
	out.SetInt(n)
	return out, nil
}

func toUint(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
	var n uint64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := src.Int()
		if i < 0 {
			return reflect.Value{}, fmt.Errorf("value %d overflows %s", i, dest)
		}
		n = uint64(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = src.Uint()
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return reflect.Value{}, fmt.Errorf("value %v is not representable as %s", f, dest)
		}
		n = uint64(f)
	default:
		if !isText(src) {
			return reflect.Value{}, unsupported(src, dest)
		}
		var err error
		if n, err = strconv.ParseUint(strings.TrimSpace(textOf(src)), 10, 64); err != nil {
			return reflect.Value{}, err
		}
	}

	out := reflect.New(dest).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, fmt.Errorf("value %d overflows %s", n, dest)
	}
	out.SetUint(n)
	return out, nil
}

func toFloat(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
	var f float64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(src.Uint())
	case reflect.Float32, reflect.Float64:
		f = src.Float()
	default:
		if !isText(src) {
			return reflect.Value{}, unsupported(src, dest)
		}
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(textOf(src)), 64); err != nil {
			return reflect.Value{}, err
		}
	}

	out := reflect.New(dest).Elem()
	out.SetFloat(f)
	return out, nil
}

func toBool(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
	var b bool
	switch src.Kind() {
	case reflect.Bool:
		b = src.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b = src.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b = src.Uint() != 0
	default:
		if !isText(src) {
			return reflect.Value{}, unsupported(src, dest)
		}
		var err error
		if b, err = strconv.ParseBool(strings.TrimSpace(textOf(src))); err != nil {
			return reflect.Value{}, err
		}
	}

	out := reflect.New(dest).Elem()
	out.SetBool(b)
	return out, nil
}

func toTime(src reflect.Value, dest reflect.Type) (reflect.Value, error) {
	if !isText(src) {
		return reflect.Value{}, unsupported(src, dest)
	}
	s := strings.TrimSpace(textOf(src))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot parse %q as time", s)
}
