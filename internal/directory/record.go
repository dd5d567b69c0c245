package directory

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoreUserSchema is the SCIM core schema URN for user attributes.
const CoreUserSchema = "urn:ietf:params:scim:schemas:core:2.0:User"

// Name holds the user's name components.
type Name struct {
	Formatted  string
	FamilyName string
	GivenName  string
}

// Email is one entry of a user's email collection.
type Email struct {
	Value   string
	Type    string
	Primary bool
}

// UserRecord is one user built from a source row.
//
// Records are published inside an immutable Snapshot and shared between
// readers; nothing may modify a record once it is in a snapshot.
type UserRecord struct {
	ID       string
	UserName string
	Active   bool
	Name     Name
	Emails   []Email

	// Password is empty when the mapping has no password column or the
	// cell was blank.
	Password string

	// Custom holds custom attributes keyed by schema URN, then attribute name.
	Custom map[string]map[string]Value
}

// SetCustom stores a custom attribute under schema.
func (u *UserRecord) SetCustom(schema, name string, v Value) {
	if u.Custom == nil {
		u.Custom = make(map[string]map[string]Value)
	}
	attrs, ok := u.Custom[schema]
	if !ok {
		attrs = make(map[string]Value)
		u.Custom[schema] = attrs
	}
	attrs[name] = v
}

// CustomValue looks up a custom attribute. Schema matching is exact.
func (u *UserRecord) CustomValue(schema, name string) (Value, bool) {
	attrs, ok := u.Custom[schema]
	if !ok {
		return Value{}, false
	}
	v, ok := attrs[name]
	return v, ok
}

// ValueKind tags the dynamic type held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindInt
	KindDouble
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a custom attribute value: exactly one of string, bool, int or
// double, selected by Kind.
type Value struct {
	kind ValueKind
	str  string
	b    bool
	i    int64
	f    float64
}

func StringValue(s string) Value  { return Value{kind: KindString, str: s} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value      { return Value{kind: KindInt, i: i} }
func DoubleValue(f float64) Value { return Value{kind: KindDouble, f: f} }

// Kind returns the value's type tag.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the string payload and whether the value is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Int returns the integer payload and whether the value is an integer.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Text returns the textual form used when comparing against filter values.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return formatDouble(v.f)
	default:
		return v.str
	}
}

// formatDouble renders f as "3.0" or "1.0E7": plain notation for
// magnitudes in [1e-3, 1e7), otherwise a mantissa with at least one
// fractional digit and an unpadded exponent.
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	if abs := math.Abs(f); abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(f, 'E', -1, 64)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}

// Interface returns the payload as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.f
	default:
		return v.str
	}
}

// MarshalJSON encodes the value as its native JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v Value) String() string {
	return v.Text()
}
