package exifmeta

import (
	"bytes"
	"strconv"

	"github.com/rwcarlsen/goexif/tiff"
)

// Rational is an unreduced TIFF rational value.
type Rational struct {
	Num, Den int64
}

func (r Rational) String() string {
	return strconv.FormatInt(r.Num, 10) + "/" + strconv.FormatInt(r.Den, 10)
}

// rawValue converts a decoded TIFF tag into a Go value before normalization:
// BYTE and UNDEFINED become []byte, ASCII a string, integer types int64 or
// []int64, rationals Rational or []Rational and floats float64 or []float64.
// Values that cannot be read yield nil.
func rawValue(tag *tiff.Tag) any {
	if tag == nil {
		return nil
	}

	switch tag.Type {
	case tiff.DTByte, tiff.DTUndefined:
		return bytes.Clone(tag.Val)

	case tiff.DTAscii:
		return string(bytes.TrimRight(tag.Val, "\x00"))

	case tiff.DTSByte, tiff.DTShort, tiff.DTLong, tiff.DTSShort, tiff.DTSLong:
		vals := make([]int64, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			v, err := tag.Int64(i)
			if err != nil {
				return nil
			}
			vals = append(vals, v)
		}
		return collapse(vals)

	case tiff.DTRational, tiff.DTSRational:
		vals := make([]Rational, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil
			}
			vals = append(vals, Rational{Num: num, Den: den})
		}
		return collapse(vals)

	case tiff.DTFloat, tiff.DTDouble:
		vals := make([]float64, 0, tag.Count)
		for i := 0; i < int(tag.Count); i++ {
			v, err := tag.Float(i)
			if err != nil {
				return nil
			}
			vals = append(vals, v)
		}
		return collapse(vals)
	}

	return bytes.Clone(tag.Val)
}

// collapse unwraps single-element slices; empty slices become nil.
func collapse[T any](vals []T) any {
	switch len(vals) {
	case 0:
		return nil
	case 1:
		return vals[0]
	default:
		return vals
	}
}
