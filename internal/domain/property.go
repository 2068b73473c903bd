package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// PropertyType is the portable name of a property type
type PropertyType string

const (
	PropertyTypeBoolean       PropertyType = "Boolean"
	PropertyTypeDate          PropertyType = "Date"
	PropertyTypeDecimal       PropertyType = "Decimal"
	PropertyTypeDouble        PropertyType = "Double"
	PropertyTypeLong          PropertyType = "Long"
	PropertyTypeString        PropertyType = "String"
	PropertyTypeBinary        PropertyType = "Binary"
	PropertyTypeName          PropertyType = "Name"
	PropertyTypePath          PropertyType = "Path"
	PropertyTypeReference     PropertyType = "Reference"
	PropertyTypeWeakReference PropertyType = "WeakReference"
	PropertyTypeURI           PropertyType = "URI"
	PropertyTypeUndefined     PropertyType = "Undefined"
)

// Supported reports whether values of this type can be written back to the store
func (t PropertyType) Supported() bool {
	switch t {
	case PropertyTypeBoolean, PropertyTypeDate, PropertyTypeDecimal,
		PropertyTypeDouble, PropertyTypeLong, PropertyTypeString:
		return true
	}
	return false
}

// PropertyValue is a portable projection of a node property
type PropertyValue struct {
	Name        string        `json:"name"`
	Type        PropertyType  `json:"type"`
	MultiValued bool          `json:"multiValued"`
	ReadOnly    bool          `json:"readOnly"`
	Values      []TypedScalar `json:"values"`
}

// TypedScalar holds one property value. Only the field matching PropertyType is set;
// unsupported types carry the type name alone.
type TypedScalar struct {
	PropertyType   PropertyType `json:"propertyType"`
	BooleanValue   *bool        `json:"booleanValue,omitempty"`
	DateValue      *time.Time   `json:"dateValue,omitempty"`
	LocalDateValue string       `json:"localDateValue,omitempty"`
	DecimalValue   *json.Number `json:"decimalValue,omitempty"`
	DoubleValue    *float64     `json:"doubleValue,omitempty"`
	LongValue      *int64       `json:"longValue,omitempty"`
	StringValue    *string      `json:"stringValue,omitempty"`
}

// Lexical returns the string representation of the scalar, preferring the typed field of
// the given type and falling back to StringValue.
func (s TypedScalar) Lexical(t PropertyType) (string, bool) {
	switch t {
	case PropertyTypeBoolean:
		if s.BooleanValue != nil {
			return strconv.FormatBool(*s.BooleanValue), true
		}
	case PropertyTypeDate:
		if s.DateValue != nil {
			return s.DateValue.Format(time.RFC3339Nano), true
		}
	case PropertyTypeDecimal:
		if s.DecimalValue != nil {
			return s.DecimalValue.String(), true
		}
	case PropertyTypeDouble:
		if s.DoubleValue != nil {
			return strconv.FormatFloat(*s.DoubleValue, 'g', -1, 64), true
		}
	case PropertyTypeLong:
		if s.LongValue != nil {
			return strconv.FormatInt(*s.LongValue, 10), true
		}
	}
	if s.StringValue != nil {
		return *s.StringValue, true
	}
	return "", false
}

// BooleanScalar builds a boolean scalar
func BooleanScalar(b bool) TypedScalar {
	return TypedScalar{PropertyType: PropertyTypeBoolean, BooleanValue: &b}
}

// DateScalar builds a date scalar with its calendar date projection
func DateScalar(t time.Time) TypedScalar {
	return TypedScalar{
		PropertyType:   PropertyTypeDate,
		DateValue:      &t,
		LocalDateValue: t.Format(time.DateOnly),
	}
}

// DecimalScalar builds a decimal scalar from its exact textual form
func DecimalScalar(d string) TypedScalar {
	n := json.Number(d)
	return TypedScalar{PropertyType: PropertyTypeDecimal, DecimalValue: &n}
}

// DoubleScalar builds a double scalar
func DoubleScalar(f float64) TypedScalar {
	return TypedScalar{PropertyType: PropertyTypeDouble, DoubleValue: &f}
}

// LongScalar builds a long scalar
func LongScalar(i int64) TypedScalar {
	return TypedScalar{PropertyType: PropertyTypeLong, LongValue: &i}
}

// StringScalar builds a string scalar
func StringScalar(s string) TypedScalar {
	return TypedScalar{PropertyType: PropertyTypeString, StringValue: &s}
}
