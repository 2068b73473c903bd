package repository

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PropertyType is the numeric type tag of a stored value
type PropertyType int

const (
	TypeUndefined     PropertyType = 0
	TypeString        PropertyType = 1
	TypeBinary        PropertyType = 2
	TypeLong          PropertyType = 3
	TypeDouble        PropertyType = 4
	TypeDate          PropertyType = 5
	TypeBoolean       PropertyType = 6
	TypeName          PropertyType = 7
	TypePath          PropertyType = 8
	TypeReference     PropertyType = 9
	TypeWeakReference PropertyType = 10
	TypeURI           PropertyType = 11
	TypeDecimal       PropertyType = 12
)

var typeNames = map[PropertyType]string{
	TypeUndefined:     "Undefined",
	TypeString:        "String",
	TypeBinary:        "Binary",
	TypeLong:          "Long",
	TypeDouble:        "Double",
	TypeDate:          "Date",
	TypeBoolean:       "Boolean",
	TypeName:          "Name",
	TypePath:          "Path",
	TypeReference:     "Reference",
	TypeWeakReference: "WeakReference",
	TypeURI:           "URI",
	TypeDecimal:       "Decimal",
}

func (t PropertyType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PropertyType(%d)", int(t))
}

// ParsePropertyType resolves a type name (case-insensitive)
func ParsePropertyType(name string) (PropertyType, bool) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, true
		}
	}
	return TypeUndefined, false
}

// DateLayout is the canonical lexical form of dates
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// decimalPattern is the JSON number grammar, so decimals render as bare numbers
var decimalPattern = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

// Value is an immutable typed value in canonical lexical form
type Value struct {
	typ     PropertyType
	lexical string
}

// Type returns the type tag
func (v Value) Type() PropertyType { return v.typ }

// String returns the canonical lexical form
func (v Value) String() string { return v.lexical }

// Boolean returns the value as a boolean
func (v Value) Boolean() (bool, error) {
	b, err := strconv.ParseBool(v.lexical)
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrValueFormat, v.lexical)
	}
	return b, nil
}

// Date returns the value as a time, keeping the stored offset
func (v Value) Date() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v.lexical)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrValueFormat, v.lexical)
	}
	return t, nil
}

// Decimal returns the exact decimal text
func (v Value) Decimal() (string, error) {
	if !decimalPattern.MatchString(v.lexical) {
		return "", fmt.Errorf("%w: %q is not a decimal", ErrValueFormat, v.lexical)
	}
	return v.lexical, nil
}

// Double returns the value as a float64
func (v Value) Double() (float64, error) {
	f, err := strconv.ParseFloat(v.lexical, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a double", ErrValueFormat, v.lexical)
	}
	return f, nil
}

// Long returns the value as an int64
func (v Value) Long() (int64, error) {
	i, err := strconv.ParseInt(v.lexical, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a long", ErrValueFormat, v.lexical)
	}
	return i, nil
}

// BooleanValue builds a Boolean value
func BooleanValue(b bool) Value {
	return Value{typ: TypeBoolean, lexical: strconv.FormatBool(b)}
}

// DateValue builds a Date value
func DateValue(t time.Time) Value {
	return Value{typ: TypeDate, lexical: t.Format(DateLayout)}
}

// DecimalValue builds a Decimal value from its exact textual form
func DecimalValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return Value{}, fmt.Errorf("%w: %q is not a decimal", ErrValueFormat, s)
	}
	return Value{typ: TypeDecimal, lexical: s}, nil
}

// DoubleValue builds a Double value. NaN and the infinities are rejected.
func DoubleValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: %v is not a finite double", ErrValueFormat, f)
	}
	return Value{typ: TypeDouble, lexical: strconv.FormatFloat(f, 'g', -1, 64)}, nil
}

// LongValue builds a Long value
func LongValue(i int64) Value {
	return Value{typ: TypeLong, lexical: strconv.FormatInt(i, 10)}
}

// StringValue builds a String value
func StringValue(s string) Value {
	return Value{typ: TypeString, lexical: s}
}

// NewValue parses a lexical form for the declared type
func NewValue(t PropertyType, lexical string) (Value, error) {
	switch t {
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(lexical))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrValueFormat, lexical)
		}
		return BooleanValue(b), nil
	case TypeDate:
		d, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(lexical))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a date", ErrValueFormat, lexical)
		}
		return DateValue(d), nil
	case TypeDecimal:
		return DecimalValue(lexical)
	case TypeDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a double", ErrValueFormat, lexical)
		}
		return DoubleValue(f)
	case TypeLong:
		i, err := strconv.ParseInt(strings.TrimSpace(lexical), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a long", ErrValueFormat, lexical)
		}
		return LongValue(i), nil
	case TypeString, TypeName, TypePath, TypeReference, TypeWeakReference, TypeURI:
		return Value{typ: t, lexical: lexical}, nil
	}
	return Value{}, fmt.Errorf("%w: cannot build a %s value from text", ErrValueFormat, t)
}

// RawValue rebuilds a value from storage without validation
func RawValue(t PropertyType, lexical string) Value {
	return Value{typ: t, lexical: lexical}
}
