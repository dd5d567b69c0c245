package directory

// filter.go evaluates SCIM user filters against a snapshot.
//
// Two shapes are supported:
//
//	userName eq "alice"                       Equality
//	email eq "a@x.io" or email eq "b@x.io"    Or of Equality
//
// Equality targets are resolved through a closed table of core attributes
// (id, userName, name.familyName, name.givenName). Paths outside that table
// fall back to custom attributes when their schema is the configured custom
// schema URN, and match nothing otherwise.

import (
	"fmt"
	"log/slog"
	"strings"
)

// AttributePath identifies the attribute a filter compares against.
type AttributePath struct {
	Schema       string // Schema URN; empty means the core user schema
	Name         string
	SubAttribute string
}

func (p AttributePath) String() string {
	s := p.Name
	if p.SubAttribute != "" {
		s += "." + p.SubAttribute
	}
	if p.Schema != "" && !strings.EqualFold(p.Schema, CoreUserSchema) {
		s = p.Schema + ":" + s
	}
	return s
}

// Filter is a parsed user filter: Equality, Or or Unsupported.
type Filter interface {
	fmt.Stringer
	filter()
}

// Equality matches users whose attribute equals Value.
type Equality struct {
	Path  AttributePath
	Value string
}

// Or is a disjunction of equality filters.
type Or struct {
	Filters []Equality
}

// Unsupported carries a filter expression the engine does not evaluate.
// It always yields an empty result.
type Unsupported struct {
	Expression string
}

func (Equality) filter()    {}
func (Or) filter()          {}
func (Unsupported) filter() {}

func (f Equality) String() string {
	return fmt.Sprintf("%s eq %q", f.Path, f.Value)
}

func (f Or) String() string {
	parts := make([]string, len(f.Filters))
	for i, sub := range f.Filters {
		parts[i] = sub.String()
	}
	return strings.Join(parts, " or ")
}

func (f Unsupported) String() string {
	return f.Expression
}

// attributeResolver extracts a core attribute for comparison. ok is false
// when the sub-attribute does not name anything on the record.
type attributeResolver func(u *UserRecord, sub string) (value string, ok bool)

// coreResolvers is keyed by lower-cased attribute name.
var coreResolvers = map[string]attributeResolver{
	"id": func(u *UserRecord, _ string) (string, bool) {
		return u.ID, true
	},
	"username": func(u *UserRecord, _ string) (string, bool) {
		return u.UserName, true
	},
	"name": func(u *UserRecord, sub string) (string, bool) {
		switch strings.ToLower(sub) {
		case "familyname":
			return u.Name.FamilyName, true
		case "givenname":
			return u.Name.GivenName, true
		}
		return "", false
	},
}

const orFilterAttribute = "email"

// Evaluate returns the users in snap matching f, in snapshot order.
// customSchema is the URN custom attribute filters are matched under.
func Evaluate(f Filter, snap *Snapshot, customSchema string) []*UserRecord {
	switch f := f.(type) {
	case Equality:
		return evaluateEquality(f, snap, customSchema)
	case Or:
		return evaluateOr(f, snap)
	default:
		slog.Warn("filter not supported, returning no users", "filter", describeFilter(f))
		return []*UserRecord{}
	}
}

func describeFilter(f Filter) string {
	if f == nil {
		return "<nil>"
	}
	return f.String()
}

func evaluateEquality(f Equality, snap *Snapshot, customSchema string) []*UserRecord {
	match := equalityMatcher(f, customSchema)
	users := []*UserRecord{}
	snap.each(func(_ int, u *UserRecord) bool {
		if match(u) {
			users = append(users, u)
		}
		return true
	})
	return users
}

// equalityMatcher picks the comparison for f once, before scanning.
func equalityMatcher(f Equality, customSchema string) func(*UserRecord) bool {
	if resolve, ok := coreResolvers[strings.ToLower(f.Path.Name)]; ok {
		return func(u *UserRecord) bool {
			v, ok := resolve(u, f.Path.SubAttribute)
			return ok && v == f.Value
		}
	}

	if customSchema != "" && strings.EqualFold(f.Path.Schema, customSchema) {
		return func(u *UserRecord) bool {
			v, ok := u.CustomValue(customSchema, f.Path.Name)
			return ok && strings.EqualFold(v.Text(), f.Value)
		}
	}

	slog.Debug("filter attribute not recognized", "attribute", f.Path.String())
	return func(*UserRecord) bool { return false }
}

// evaluateOr appends a user once for every sub-filter it matches, so a user
// matched by two sub-filters appears twice.
func evaluateOr(f Or, snap *Snapshot) []*UserRecord {
	users := []*UserRecord{}
	for _, sub := range f.Filters {
		if !strings.EqualFold(sub.Path.Name, orFilterAttribute) {
			continue
		}
		snap.each(func(_ int, u *UserRecord) bool {
			for _, e := range u.Emails {
				if strings.EqualFold(e.Value, sub.Value) {
					users = append(users, u)
					break
				}
			}
			return true
		})
	}
	return users
}
