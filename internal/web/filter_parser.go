package web

// filter_parser.go turns the SCIM filter query parameter into a
// directory.Filter.
//
// Accepted:
//
//	attrPath eq value
//	attrPath eq value or attrPath eq value ...
//
// attrPath is a bare attribute ("userName"), a sub-attribute
// ("name.familyName") or URN-qualified
// ("urn:okta:onprem_app:1.0:user:custom:department"). Well-formed filters
// using any other operator, "and", "not" or grouping parse to
// directory.Unsupported and match nothing. Malformed filters are an error.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scimfile/internal/directory"
)

// ErrInvalidFilter is wrapped by every filter syntax error.
var ErrInvalidFilter = errors.New("invalid filter")

// scimOperators are the RFC 7644 comparison operators.
var scimOperators = map[string]bool{
	"eq": true, "ne": true, "co": true, "sw": true, "ew": true,
	"gt": true, "ge": true, "lt": true, "le": true, "pr": true,
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
)

type token struct {
	kind tokenKind
	text string // unquoted for tokString
}

// ParseFilter parses a SCIM filter expression. An empty expression returns
// a nil Filter.
func ParseFilter(expr string) (directory.Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	if strings.ContainsAny(expr, "()[]") && !insideQuotesOnly(expr, "()[]") {
		return directory.Unsupported{Expression: expr}, nil
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	var (
		terms       []directory.Equality
		unsupported bool
	)
	for i := 0; ; {
		if i >= len(tokens) {
			return nil, fmt.Errorf("%w: expression ends after logical operator", ErrInvalidFilter)
		}
		if strings.EqualFold(tokens[i].text, "not") && tokens[i].kind == tokWord {
			unsupported = true
			i++
			continue
		}

		term, next, eq, err := parseComparison(tokens, i)
		if err != nil {
			return nil, err
		}
		if eq {
			terms = append(terms, term)
		} else {
			unsupported = true
		}
		i = next

		if i == len(tokens) {
			break
		}
		logical := tokens[i]
		if logical.kind != tokWord {
			return nil, fmt.Errorf("%w: expected \"or\" or \"and\", got %q", ErrInvalidFilter, logical.text)
		}
		switch strings.ToLower(logical.text) {
		case "or":
		case "and":
			unsupported = true
		default:
			return nil, fmt.Errorf("%w: expected \"or\" or \"and\", got %q", ErrInvalidFilter, logical.text)
		}
		i++
	}

	if unsupported {
		return directory.Unsupported{Expression: expr}, nil
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return directory.Or{Filters: terms}, nil
}

// parseComparison reads "attrPath op [value]" starting at tokens[i]. eq
// reports whether the operator was eq; other operators are consumed but
// yield no term.
func parseComparison(tokens []token, i int) (term directory.Equality, next int, eq bool, err error) {
	attr := tokens[i]
	if attr.kind != tokWord || scimOperators[strings.ToLower(attr.text)] {
		return term, 0, false, fmt.Errorf("%w: expected attribute, got %q", ErrInvalidFilter, attr.text)
	}
	path, err := parseAttributePath(attr.text)
	if err != nil {
		return term, 0, false, err
	}

	if i+1 >= len(tokens) {
		return term, 0, false, fmt.Errorf("%w: missing operator after %q", ErrInvalidFilter, attr.text)
	}
	op := strings.ToLower(tokens[i+1].text)
	if tokens[i+1].kind != tokWord || !scimOperators[op] {
		return term, 0, false, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, tokens[i+1].text)
	}
	if op == "pr" {
		return term, i + 2, false, nil
	}

	if i+2 >= len(tokens) {
		return term, 0, false, fmt.Errorf("%w: missing value after %q %s", ErrInvalidFilter, attr.text, op)
	}
	value := tokens[i+2]
	if value.kind == tokWord && !isBareLiteral(value.text) {
		return term, 0, false, fmt.Errorf("%w: value %q must be quoted", ErrInvalidFilter, value.text)
	}

	return directory.Equality{Path: path, Value: value.text}, i + 3, op == "eq", nil
}

// parseAttributePath splits a URN prefix and a sub-attribute off an
// attribute path.
func parseAttributePath(s string) (directory.AttributePath, error) {
	var path directory.AttributePath

	rest := s
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		path.Schema = s[:idx]
		rest = s[idx+1:]
	}

	name, sub, _ := strings.Cut(rest, ".")
	if name == "" || strings.Contains(sub, ".") {
		return path, fmt.Errorf("%w: bad attribute path %q", ErrInvalidFilter, s)
	}
	path.Name = name
	path.SubAttribute = sub
	return path, nil
}

// isBareLiteral reports whether an unquoted comparison value is a JSON
// literal: true, false, null or a number.
func isBareLiteral(s string) bool {
	switch s {
	case "true", "false", "null":
		return true
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

// tokenize splits expr on whitespace. Double-quoted strings are one token
// and are unescaped with JSON string rules.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"':
			end := i + 1
			for end < len(expr) && expr[end] != '"' {
				if expr[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(expr) {
				return nil, fmt.Errorf("%w: unterminated string at offset %d", ErrInvalidFilter, i)
			}
			var s string
			if err := json.Unmarshal([]byte(expr[i:end+1]), &s); err != nil {
				return nil, fmt.Errorf("%w: bad string literal %s", ErrInvalidFilter, expr[i:end+1])
			}
			tokens = append(tokens, token{kind: tokString, text: s})
			i = end + 1
		default:
			end := i
			for end < len(expr) && expr[end] != ' ' && expr[end] != '\t' && expr[end] != '"' {
				end++
			}
			tokens = append(tokens, token{kind: tokWord, text: expr[i:end]})
			i = end
		}
	}
	return tokens, nil
}

// insideQuotesOnly reports whether every character of chars that occurs in
// expr is inside a double-quoted string.
func insideQuotesOnly(expr, chars string) bool {
	inQuote := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '\\' && inQuote:
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && strings.IndexByte(chars, c) >= 0:
			return false
		}
	}
	return true
}
