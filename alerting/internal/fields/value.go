package fields

import (
	"strings"
	"time"
)

// Value is a typed field value read from a summary row.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
	Bool bool
}

// String builds a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{Kind: KindNumeric, Num: n} }

// Instant builds a temporal value.
func Instant(t time.Time) Value { return Value{Kind: KindTemporal, Time: t} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Compare returns -1, 0 or +1. Strings compare by bytes, which is the order
// of a keyword field, not any domain ranking. Values of different kinds
// compare by kind.
func Compare(a, b Value) int {
	if a.Kind != b.Kind {
		return cmpOrdered(a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindString:
		return strings.Compare(a.Str, b.Str)
	case KindNumeric:
		return cmpOrdered(a.Num, b.Num)
	case KindTemporal:
		return a.Time.Compare(b.Time)
	case KindBoolean:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func cmpOrdered[T ~int | ~float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func stringValue(s *string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	return String(*s), true
}

func timeValue(t *time.Time) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	return Instant(*t), true
}
