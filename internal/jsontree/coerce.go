package jsontree

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Extended-JSON wrappers emitted by the upstream document store.
const (
	keyDate          = "$date"
	keyNumberLong    = "$numberLong"
	keyNumberInt     = "$numberInt"
	keyNumberDouble  = "$numberDouble"
	keyNumberDecimal = "$numberDecimal"
)

var numberWrappers = []string{keyNumberLong, keyNumberInt, keyNumberDouble, keyNumberDecimal}

// ToNumber coerces v to a finite float.
// Numbers pass through, strings are parsed, {"$numberLong": "..."} style wrappers are unwrapped.
// Everything else, including empty and unparsable strings, is absent (nil).
func ToNumber(v Value) *float64 {
	switch v.kind {
	case Number:
		return parseNumber(v.str)
	case String:
		return parseNumber(v.str)
	case Object:
		for _, key := range numberWrappers {
			if inner := v.Field(key); !inner.IsAbsent() {
				return ToNumber(inner)
			}
		}
	}
	return nil
}

func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ToInt coerces v like ToNumber and truncates toward zero.
// Values outside the 32-bit range of the INTEGER columns they land in are absent.
func ToInt(v Value) *int {
	f := ToNumber(v)
	if f == nil {
		return nil
	}
	t := math.Trunc(*f)
	if t < math.MinInt32 || t > math.MaxInt32 {
		return nil
	}
	n := int(t)
	return &n
}

// ToDate coerces v to a point in time.
// Strings are parsed as date-times; zone-less inputs are interpreted in loc.
// {"$date": ...} accepts a string, epoch milliseconds, or {"$numberLong": millis}.
func ToDate(v Value, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.Local
	}
	switch v.kind {
	case String:
		return parseDate(v.str, loc)
	case Object:
		inner := v.Field(keyDate)
		switch inner.kind {
		case String:
			return parseDate(inner.str, loc)
		case Number, Object:
			if ms := ToNumber(inner); ms != nil {
				t := time.UnixMilli(int64(*ms)).In(loc)
				return &t
			}
		}
	}
	return nil
}

func parseDate(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return nil
	}
	return &t
}

// ToText coerces a scalar to text. Empty strings, objects and arrays are absent.
func ToText(v Value) *string {
	var s string
	switch v.kind {
	case String:
		s = v.str
	case Number:
		f := parseNumber(v.str)
		if f == nil {
			s = v.str
		} else {
			s = strconv.FormatFloat(*f, 'f', -1, 64)
		}
	case Bool:
		s = strconv.FormatBool(v.b)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// FirstNumber tries each path in order and returns the first one that coerces to a number.
func FirstNumber(v Value, paths ...string) *float64 {
	for _, p := range paths {
		if n := ToNumber(v.Get(p)); n != nil {
			return n
		}
	}
	return nil
}

// FirstInt is FirstNumber truncated toward zero.
func FirstInt(v Value, paths ...string) *int {
	for _, p := range paths {
		if n := ToInt(v.Get(p)); n != nil {
			return n
		}
	}
	return nil
}

// FirstDate tries each path in order and returns the first one that coerces to a date.
func FirstDate(v Value, loc *time.Location, paths ...string) *time.Time {
	for _, p := range paths {
		if t := ToDate(v.Get(p), loc); t != nil {
			return t
		}
	}
	return nil
}

// FirstText tries each path in order and returns the first one that coerces to non-empty text.
func FirstText(v Value, paths ...string) *string {
	for _, p := range paths {
		if s := ToText(v.Get(p)); s != nil {
			return s
		}
	}
	return nil
}
