package directory

// error_messages.go maps technical errors to messages an operator can act on.
//
// Each message carries a code for support reference. Typed errors are
// checked first with errors.As / errors.Is; anything else falls back to
// case-insensitive substring patterns, first match wins.
//
// # Configuration (CFG001-CFG099)
//
//	CFG001 - Column mapping is invalid or unreadable
//	CFG002 - A mapped column is missing from the users file header
//	CFG003 - A required logical field has no mapping entry
//
// # Ingestion (ING001-ING099)
//
//	ING001 - Users file could not be read
//	ING002 - A custom attribute value does not match its declared type
//	ING003 - Users file is not valid CSV
//
// # Queries (SCIM001-SCIM099)
//
//	SCIM001 - User not found
//	SCIM002 - Operation not implemented
//	SCIM003 - Filter could not be parsed
//
// # Default (ERR000)
//
//	ERR000 - Unexpected error; check the server log for the technical error

import (
	"errors"
	"strings"

	"github.com/JonMunkholm/scimfile/internal/mapping"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgMappingInvalid = UserMessage{
		Message: "The column mapping is invalid or could not be read",
		Action:  "Check the column mapping file; every entry needs column, type, classification and mandatory flag",
		Code:    "CFG001",
	}
	msgColumnMissing = UserMessage{
		Message: "A mapped column is missing from the users file",
		Action:  "Make sure the users file header contains every column named in the mapping",
		Code:    "CFG002",
	}
	msgFieldUnmapped = UserMessage{
		Message: "A required user field has no column mapping",
		Action:  "Map id, userName, familyName, givenName, email and active",
		Code:    "CFG003",
	}
	msgSourceUnreadable = UserMessage{
		Message: "The users file could not be read",
		Action:  "Check that the users file exists and is readable by the connector",
		Code:    "ING001",
	}
	msgBadCustomValue = UserMessage{
		Message: "A custom attribute value does not match its declared type",
		Action:  "Fix the value in the users file or change the column's type in the mapping",
		Code:    "ING002",
	}
	msgBadCSV = UserMessage{
		Message: "The users file is not valid CSV",
		Action:  "Check the users file for unbalanced or stray double quotes",
		Code:    "ING003",
	}
	msgUserNotFound = UserMessage{
		Message: "User not found",
		Action:  "Verify the user id; the directory is rebuilt from the users file on refresh",
		Code:    "SCIM001",
	}
	msgNotImplemented = UserMessage{
		Message: "This operation is not supported by the connector",
		Action:  "The connector is read-only; manage users in the source file",
		Code:    "SCIM002",
	}
	msgUnknown = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// errorPattern maps a lower-case substring of an error message to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is consulted after typed checks. Specific before general.
var errorPatterns = []errorPattern{
	{pattern: "column not found", msg: msgColumnMissing},
	{pattern: "missing required column mapping", msg: msgFieldUnmapped},
	{pattern: "invalid column mapping", msg: msgMappingInvalid},
	{pattern: "invalid number", msg: msgBadCustomValue},
	{pattern: "invalid boolean", msg: msgBadCustomValue},
	{pattern: "parse error", msg: msgBadCSV},
	{pattern: "invalid filter", msg: UserMessage{
		Message: "The filter could not be parsed",
		Action:  `Use expressions like userName eq "alice" or email eq "a@example.com" or email eq "b@example.com"`,
		Code:    "SCIM003",
	}},
}

// MapError converts an error into a user-facing message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrUserNotFound):
		return msgUserNotFound
	case errors.Is(err, ErrNotImplemented):
		return msgNotImplemented
	case errors.Is(err, mapping.ErrMissingField):
		return msgFieldUnmapped
	case errors.Is(err, mapping.ErrInvalidEntry):
		return msgMappingInvalid
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return msgMappingInvalid
	}
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return msgSourceUnreadable
	}

	return msgUnknown
}
