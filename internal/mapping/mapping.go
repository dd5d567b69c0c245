// Package mapping loads the declarative column mapping that tells the
// directory how to turn CSV columns into user record fields.
//
// Each entry is keyed by a logical field name and carries a comma-delimited
// 4-tuple:
//
//	id=EmployeeID,String,isSCIMVariable,isMandatory
//	department=Dept,String,isNotSCIMVariable,isNotMandatory
//
// The tuple parts are the source column header, the value type (String,
// Boolean, Integer or Double), whether the field is a core SCIM attribute,
// and whether the column must be populated on every row.
package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Logical field names with a fixed meaning in the user record.
const (
	FieldID         = "id"
	FieldUserName   = "userName"
	FieldFamilyName = "familyName"
	FieldGivenName  = "givenName"
	FieldEmail      = "email"
	FieldActive     = "active"
	FieldPassword   = "password"
)

// RequiredFields lists the logical fields every mapping must define.
var RequiredFields = []string{
	FieldID,
	FieldUserName,
	FieldFamilyName,
	FieldGivenName,
	FieldEmail,
	FieldActive,
}

var (
	// ErrInvalidEntry is returned when a mapping tuple cannot be parsed.
	ErrInvalidEntry = errors.New("invalid column mapping entry")

	// ErrMissingField is returned when a required logical field has no entry.
	ErrMissingField = errors.New("missing required column mapping")
)

// ValueType is the declared type of a mapped column's cells.
type ValueType int

const (
	TypeString ValueType = iota
	TypeBoolean
	TypeInteger
	TypeDouble
)

// String returns the name used for the type in mapping files.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeBoolean:
		return "Boolean"
	case TypeInteger:
		return "Integer"
	case TypeDouble:
		return "Double"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// parseValueType matches type names exactly, as mapping files always have.
func parseValueType(s string) (ValueType, error) {
	switch s {
	case "String":
		return TypeString, nil
	case "Boolean":
		return TypeBoolean, nil
	case "Integer":
		return TypeInteger, nil
	case "Double":
		return TypeDouble, nil
	}
	return 0, fmt.Errorf("unknown value type %q (want String, Boolean, Integer or Double)", s)
}

// Classification separates core SCIM attributes from custom attributes.
type Classification int

const (
	CoreField Classification = iota
	CustomField
)

const (
	tokenSCIMVariable    = "isscimvariable"
	tokenNotSCIMVariable = "isnotscimvariable"
	tokenMandatory       = "ismandatory"
)

func (c Classification) String() string {
	if c == CustomField {
		return "isNotSCIMVariable"
	}
	return "isSCIMVariable"
}

// Column is one parsed mapping entry.
type Column struct {
	Field          string // Logical field name (the mapping key)
	Source         string // CSV header name
	Type           ValueType
	Classification Classification
	Mandatory      bool
}

// IsCore reports whether the column maps a core SCIM attribute.
func (c Column) IsCore() bool {
	return c.Classification == CoreField
}

// MustBePopulated reports whether an empty cell rejects the row.
// Core attributes are always required, custom ones only when flagged.
func (c Column) MustBePopulated() bool {
	return c.IsCore() || c.Mandatory
}

// ParseEntry parses one "Source,Type,Classification,Mandatory" tuple.
func ParseEntry(field, raw string) (Column, error) {
	parts := strings.Split(raw, ",")
	if len(parts) < 4 {
		return Column{}, fmt.Errorf("%w %s=%q: want 4 comma-separated parts, got %d",
			ErrInvalidEntry, field, raw, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if parts[0] == "" {
		return Column{}, fmt.Errorf("%w %s=%q: empty source column", ErrInvalidEntry, field, raw)
	}

	vt, err := parseValueType(parts[1])
	if err != nil {
		return Column{}, fmt.Errorf("%w %s: %v", ErrInvalidEntry, field, err)
	}

	var class Classification
	switch strings.ToLower(parts[2]) {
	case tokenSCIMVariable:
		class = CoreField
	case tokenNotSCIMVariable:
		class = CustomField
	default:
		return Column{}, fmt.Errorf("%w %s: unknown classification %q (want isSCIMVariable or isNotSCIMVariable)",
			ErrInvalidEntry, field, parts[2])
	}

	return Column{
		Field:          field,
		Source:         parts[0],
		Type:           vt,
		Classification: class,
		Mandatory:      strings.ToLower(parts[3]) == tokenMandatory,
	}, nil
}

// Set is an immutable, ordered collection of column mappings.
type Set struct {
	columns []Column
	byField map[string]int
}

// Parse builds a Set from raw field → tuple entries.
// Entries with an empty value are ignored. All entry errors and missing
// required fields are reported together.
func Parse(entries map[string]string) (*Set, error) {
	fields := make([]string, 0, len(entries))
	for field := range entries {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	set := &Set{byField: make(map[string]int, len(fields))}
	var errs []error

	for _, field := range fields {
		raw := strings.TrimSpace(entries[field])
		if raw == "" {
			continue
		}
		col, err := ParseEntry(strings.TrimSpace(field), raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set.byField[col.Field] = len(set.columns)
		set.columns = append(set.columns, col)
	}

	var missing []string
	for _, field := range RequiredFields {
		if _, ok := set.byField[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", ")))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}

// Columns returns every mapping entry, sorted by logical field name.
func (s *Set) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Lookup returns the entry for a logical field.
func (s *Set) Lookup(field string) (Column, bool) {
	i, ok := s.byField[field]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Custom returns the entries classified as custom attributes.
func (s *Set) Custom() []Column {
	var out []Column
	for _, c := range s.columns {
		if !c.IsCore() {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.columns)
}
