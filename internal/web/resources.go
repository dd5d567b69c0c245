package web

// resources.go renders directory types as SCIM 2.0 JSON documents.

import (
	"slices"

	"github.com/JonMunkholm/scimfile/internal/directory"
)

// SCIM schema and message URNs.
const (
	schemaListResponse  = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
	schemaError         = "urn:ietf:params:scim:api:messages:2.0:Error"
	schemaGroup         = "urn:ietf:params:scim:schemas:core:2.0:Group"
	schemaSPConfig      = "urn:ietf:params:scim:schemas:core:2.0:ServiceProviderConfig"
	scimContentType     = "application/scim+json"
	defaultPageMaxCount = 1000
)

type scimName struct {
	Formatted  string `json:"formatted"`
	FamilyName string `json:"familyName"`
	GivenName  string `json:"givenName"`
}

type scimEmail struct {
	Value   string `json:"value"`
	Type    string `json:"type"`
	Primary bool   `json:"primary"`
}

type scimMeta struct {
	ResourceType string `json:"resourceType"`
	Location     string `json:"location,omitempty"`
}

// userResource renders a user. Custom attributes are added under their
// schema URN as extra top-level keys, so the document is built as a map.
// The password is never rendered.
func userResource(u *directory.UserRecord, location string) map[string]any {
	extensions := make([]string, 0, len(u.Custom))
	for urn := range u.Custom {
		extensions = append(extensions, urn)
	}
	slices.Sort(extensions)
	schemas := append([]string{directory.CoreUserSchema}, extensions...)

	emails := make([]scimEmail, len(u.Emails))
	for i, e := range u.Emails {
		emails[i] = scimEmail{Value: e.Value, Type: e.Type, Primary: e.Primary}
	}

	doc := map[string]any{
		"schemas":  schemas,
		"id":       u.ID,
		"userName": u.UserName,
		"active":   u.Active,
		"name": scimName{
			Formatted:  u.Name.Formatted,
			FamilyName: u.Name.FamilyName,
			GivenName:  u.Name.GivenName,
		},
		"emails": emails,
		"groups": []any{},
		"meta":   scimMeta{ResourceType: "User", Location: location},
	}
	for urn, attrs := range u.Custom {
		ext := make(map[string]directory.Value, len(attrs))
		for name, v := range attrs {
			ext[name] = v
		}
		doc[urn] = ext
	}
	return doc
}

// listResponse is the SCIM ListResponse envelope.
type listResponse struct {
	Schemas      []string `json:"schemas"`
	TotalResults int      `json:"totalResults"`
	StartIndex   int      `json:"startIndex"`
	ItemsPerPage int      `json:"itemsPerPage"`
	Resources    []any    `json:"Resources"`
}

func newListResponse(total, startIndex int, resources []any) listResponse {
	if resources == nil {
		resources = []any{}
	}
	return listResponse{
		Schemas:      []string{schemaListResponse},
		TotalResults: total,
		StartIndex:   startIndex,
		ItemsPerPage: len(resources),
		Resources:    resources,
	}
}

// scimError is the SCIM error document. Status is a string per RFC 7644.
type scimError struct {
	Schemas  []string `json:"schemas"`
	Status   string   `json:"status"`
	ScimType string   `json:"scimType,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

type supported struct {
	Supported bool `json:"supported"`
}

type filterSupport struct {
	Supported  bool `json:"supported"`
	MaxResults int  `json:"maxResults"`
}

type bulkSupport struct {
	Supported      bool `json:"supported"`
	MaxOperations  int  `json:"maxOperations"`
	MaxPayloadSize int  `json:"maxPayloadSize"`
}

type authScheme struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// serviceProviderConfig describes the server's SCIM feature set, plus the
// connector's implemented capabilities.
type serviceProviderConfig struct {
	Schemas               []string               `json:"schemas"`
	Patch                 supported              `json:"patch"`
	Bulk                  bulkSupport            `json:"bulk"`
	Filter                filterSupport          `json:"filter"`
	ChangePassword        supported              `json:"changePassword"`
	Sort                  supported              `json:"sort"`
	ETag                  supported              `json:"etag"`
	AuthenticationSchemes []authScheme           `json:"authenticationSchemes"`
	Capabilities          []directory.Capability `json:"capabilities"`
}

func newServiceProviderConfig(caps []directory.Capability, apiKeyAuth bool) serviceProviderConfig {
	cfg := serviceProviderConfig{
		Schemas:               []string{schemaSPConfig},
		Filter:                filterSupport{Supported: true, MaxResults: defaultPageMaxCount},
		AuthenticationSchemes: []authScheme{},
		Capabilities:          caps,
	}
	if apiKeyAuth {
		cfg.AuthenticationSchemes = append(cfg.AuthenticationSchemes, authScheme{
			Type:        "oauthbearertoken",
			Name:        "API key",
			Description: "Static API key sent as a bearer token or X-API-Key header",
		})
	}
	return cfg
}
