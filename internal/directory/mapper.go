package directory

// mapper.go turns one CSV row into a UserRecord according to the column
// mapping.
//
// Rows are processed in this order:
//  1. Active check: the raw active cell is compared with the inactive value.
//  2. Mandatory check: every core or mandatory column must be non-blank.
//  3. Core fields: id, userName, name, email, password.
//  4. Custom attributes: typed conversion per the mapping's value type.
//
// Inactive and incomplete rows are skipped with ErrNotActive and
// ErrRowRejected. A custom value that does not parse as its declared type is
// an IngestionError and stops the refresh.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/scimfile/internal/mapping"
)

const (
	emailTypeWork = "work"
)

// MapperOptions holds the application settings the mapper needs.
type MapperOptions struct {
	// InactiveValue is the raw active-column value that marks a user inactive.
	InactiveValue string

	// CustomSchema is the URN custom attributes are stored under.
	CustomSchema string
}

// boundColumn is a mapping entry resolved to a position in the header.
type boundColumn struct {
	mapping.Column
	pos int
}

// Mapper converts rows of one source file into user records.
// A Mapper is bound to one header and must not be reused across files.
type Mapper struct {
	opts MapperOptions

	id, userName, familyName, givenName, email, active boundColumn
	password                                           *boundColumn

	required []boundColumn
	custom   []boundColumn
}

// NewMapper resolves every mapping entry against the header row.
// A mapped column that is missing from the header is a ConfigError.
func NewMapper(set *mapping.Set, header []string, opts MapperOptions) (*Mapper, error) {
	idx := makeHeaderIndex(header)

	var missing []string
	bound := make(map[string]boundColumn, set.Len())
	for _, col := range set.Columns() {
		pos, ok := idx.lookup(col.Source)
		if !ok {
			missing = append(missing, fmt.Sprintf("%s (for %s)", col.Source, col.Field))
			continue
		}
		bound[col.Field] = boundColumn{Column: col, pos: pos}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{
			Op:  "bind column mapping",
			Err: fmt.Errorf("column not found in header: %s", strings.Join(missing, ", ")),
		}
	}

	m := &Mapper{opts: opts}
	for _, field := range mapping.RequiredFields {
		if _, ok := bound[field]; !ok {
			return nil, &ConfigError{
				Op:  "bind column mapping",
				Err: fmt.Errorf("%w: %s", mapping.ErrMissingField, field),
			}
		}
	}
	m.id = bound[mapping.FieldID]
	m.userName = bound[mapping.FieldUserName]
	m.familyName = bound[mapping.FieldFamilyName]
	m.givenName = bound[mapping.FieldGivenName]
	m.email = bound[mapping.FieldEmail]
	m.active = bound[mapping.FieldActive]
	if _, ok := set.Lookup(mapping.FieldPassword); ok {
		pw := bound[mapping.FieldPassword]
		m.password = &pw
	}

	for _, col := range set.Columns() {
		if col.MustBePopulated() {
			m.required = append(m.required, bound[col.Field])
		}
	}
	for _, col := range set.Custom() {
		m.custom = append(m.custom, bound[col.Field])
	}

	return m, nil
}

// cell returns the raw value at a bound column. Short rows read as blank.
func cell(row []string, c boundColumn) string {
	if c.pos >= len(row) {
		return ""
	}
	return row[c.pos]
}

// Map builds a user record from one row.
func (m *Mapper) Map(row []string) (*UserRecord, error) {
	if cell(row, m.active) == m.opts.InactiveValue {
		return nil, ErrNotActive
	}

	for _, c := range m.required {
		if strings.TrimSpace(cell(row, c)) == "" {
			return nil, fmt.Errorf("%w: %s", ErrRowRejected, c.Field)
		}
	}

	familyName := cell(row, m.familyName)
	givenName := cell(row, m.givenName)

	u := &UserRecord{
		ID:       cell(row, m.id),
		UserName: cell(row, m.userName),
		Active:   true,
		Name: Name{
			Formatted:  familyName + " " + givenName,
			FamilyName: familyName,
			GivenName:  givenName,
		},
		Emails: []Email{{
			Value:   cell(row, m.email),
			Type:    emailTypeWork,
			Primary: true,
		}},
	}

	if m.password != nil {
		u.Password = cell(row, *m.password)
	}

	for _, c := range m.custom {
		raw := cell(row, c)
		v, ok, err := convertCustom(raw, c.Column)
		if err != nil {
			return nil, &IngestionError{Field: c.Field, Err: err}
		}
		if ok {
			u.SetCustom(m.opts.CustomSchema, c.Field, v)
		}
	}

	return u, nil
}

// convertCustom parses a custom cell per its declared type. A blank cell
// in a Boolean, Integer or Double column is a conversion error.
func convertCustom(raw string, col mapping.Column) (Value, bool, error) {
	if col.Type == mapping.TypeString {
		return StringValue(raw), true, nil
	}

	s := strings.TrimSpace(raw)

	switch col.Type {
	case mapping.TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, false, fmt.Errorf("invalid boolean %q in column %s", raw, col.Source)
		}
		return BoolValue(b), true, nil
	case mapping.TypeInteger:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, false, fmt.Errorf("invalid number %q in column %s: want 32-bit integer", raw, col.Source)
		}
		return IntValue(i), true, nil
	case mapping.TypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, false, fmt.Errorf("invalid number %q in column %s: want decimal", raw, col.Source)
		}
		return DoubleValue(f), true, nil
	}
	return Value{}, false, fmt.Errorf("unsupported value type %s for column %s", col.Type, col.Source)
}
