package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleProperties = `# CSV column mapping
id=EmployeeID,String,isSCIMVariable,isMandatory
userName=Login,String,isSCIMVariable,isMandatory
familyName=Last,String,isSCIMVariable,isMandatory
givenName=First,String,isSCIMVariable,isMandatory
email=Mail,String,isSCIMVariable,isMandatory
active=Status,String,isSCIMVariable,isMandatory
password=
department=Dept, String, isNotSCIMVariable, isNotMandatory
badgeNumber=Badge,Integer,ISNOTSCIMVARIABLE,ISMANDATORY
`

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Column
		wantErr bool
	}{
		{
			name: "core mandatory",
			raw:  "ID,String,isSCIMVariable,isMandatory",
			want: Column{Field: "f", Source: "ID", Type: TypeString, Classification: CoreField, Mandatory: true},
		},
		{
			name: "custom optional double with spaces",
			raw:  " Score , Double , isNotSCIMVariable , isNotMandatory ",
			want: Column{Field: "f", Source: "Score", Type: TypeDouble, Classification: CustomField},
		},
		{
			name: "classification is case-insensitive",
			raw:  "Flag,Boolean,ISSCIMVARIABLE,IsMandatory",
			want: Column{Field: "f", Source: "Flag", Type: TypeBoolean, Classification: CoreField, Mandatory: true},
		},
		{name: "too few parts", raw: "ID,String,isSCIMVariable", wantErr: true},
		{name: "value type is case-sensitive", raw: "ID,string,isSCIMVariable,isMandatory", wantErr: true},
		{name: "unknown classification", raw: "ID,String,core,isMandatory", wantErr: true},
		{name: "empty source", raw: ",String,isSCIMVariable,isMandatory", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntry("f", tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEntry(%q) expected error", tt.raw)
				}
				if !errors.Is(err, ErrInvalidEntry) {
					t.Errorf("error %v should wrap ErrInvalidEntry", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEntry(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseEntry(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestColumn_MustBePopulated(t *testing.T) {
	tests := []struct {
		col  Column
		want bool
	}{
		{Column{Classification: CoreField}, true},
		{Column{Classification: CoreField, Mandatory: true}, true},
		{Column{Classification: CustomField, Mandatory: true}, true},
		{Column{Classification: CustomField}, false},
	}
	for _, tt := range tests {
		if got := tt.col.MustBePopulated(); got != tt.want {
			t.Errorf("%+v.MustBePopulated() = %v, want %v", tt.col, got, tt.want)
		}
	}
}

func TestLoad_Properties(t *testing.T) {
	set, err := Load(strings.NewReader(sampleProperties), FormatProperties)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// password has an empty value and is skipped
	if set.Len() != 8 {
		t.Errorf("Len() = %d, want 8", set.Len())
	}
	if _, ok := set.Lookup(FieldPassword); ok {
		t.Error("empty password entry should be ignored")
	}

	id, ok := set.Lookup(FieldID)
	if !ok || id.Source != "EmployeeID" || !id.IsCore() {
		t.Errorf("Lookup(id) = %+v, %v", id, ok)
	}

	custom := set.Custom()
	if len(custom) != 2 {
		t.Fatalf("Custom() len = %d, want 2", len(custom))
	}
	// sorted by logical name
	if custom[0].Field != "badgeNumber" || custom[1].Field != "department" {
		t.Errorf("Custom() order = %s, %s", custom[0].Field, custom[1].Field)
	}
	if custom[0].Type != TypeInteger || !custom[0].Mandatory {
		t.Errorf("badgeNumber = %+v", custom[0])
	}
}

func TestLoad_YAML(t *testing.T) {
	doc := `
id: "ID,String,isSCIMVariable,isMandatory"
userName: "UN,String,isSCIMVariable,isMandatory"
familyName: "LN,String,isSCIMVariable,isMandatory"
givenName: "FN,String,isSCIMVariable,isMandatory"
email: "EM,String,isSCIMVariable,isMandatory"
active: "ST,String,isSCIMVariable,isMandatory"
costCenter: "CC,Integer,isNotSCIMVariable,isNotMandatory"
`
	set, err := Load(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cc, ok := set.Lookup("costCenter")
	if !ok || cc.Type != TypeInteger || cc.IsCore() {
		t.Errorf("Lookup(costCenter) = %+v, %v", cc, ok)
	}
}

func TestParse_MissingRequiredFields(t *testing.T) {
	_, err := Parse(map[string]string{
		"id":       "ID,String,isSCIMVariable,isMandatory",
		"userName": "UN,String,isSCIMVariable,isMandatory",
	})
	if err == nil {
		t.Fatal("Parse() expected error for missing fields")
	}
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("error %v should wrap ErrMissingField", err)
	}
	for _, field := range []string{"familyName", "givenName", "email", "active"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
}

func TestParse_ReportsAllErrors(t *testing.T) {
	entries := map[string]string{
		"id":         "ID,String,isSCIMVariable,isMandatory",
		"userName":   "UN,String,isSCIMVariable,isMandatory",
		"familyName": "LN,String,isSCIMVariable,isMandatory",
		"givenName":  "FN,String,isSCIMVariable,isMandatory",
		"email":      "EM,String,isSCIMVariable,isMandatory",
		"active":     "ST,String,isSCIMVariable,isMandatory",
		"a":          "A,Long,isNotSCIMVariable,isNotMandatory",
		"b":          "B,String",
	}
	_, err := Parse(entries)
	if err == nil {
		t.Fatal("Parse() expected error")
	}
	if !strings.Contains(err.Error(), "Long") || !strings.Contains(err.Error(), "B,String") {
		t.Errorf("error should mention both bad entries: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	propsPath := filepath.Join(dir, "CSVColumnMapping.properties")
	if err := os.WriteFile(propsPath, []byte(sampleProperties), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(propsPath); err != nil {
		t.Errorf("LoadFile(properties) error = %v", err)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.properties")); err == nil {
		t.Error("LoadFile(missing) expected error")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"/etc/map.properties": FormatProperties,
		"map.YAML":            FormatYAML,
		"map.yml":             FormatYAML,
		"map":                 FormatProperties,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
