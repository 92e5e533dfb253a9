package exifmeta

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"

	"golang.org/x/text/encoding/unicode"
)

// Normalize converts a raw metadata value into something that fits a single
// scalar column. Byte slices are decoded as UTF-16LE, invalid sequences
// becoming U+FFFD and trailing NULs dropped; if decoding fails outright the
// quoted bytes are returned. Slices, arrays, maps, structs and rationals become
// their string form. Other scalars pass through unchanged.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return decodeUTF16LE(val)
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case Rational:
		return val.String()
	case *big.Rat:
		if val == nil {
			return nil
		}
		return val.RatString()
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return fmt.Sprint(v)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}

	return fmt.Sprint(v)
}

// NormalizeAll applies Normalize to every value of m in place and returns it.
func NormalizeAll(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = Normalize(v)
	}
	return m
}

func decodeUTF16LE(b []byte) string {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return fmt.Sprintf("%q", b)
	}
	return string(bytes.TrimRight(out, "\x00"))
}
