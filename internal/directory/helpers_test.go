package directory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/scimfile/internal/mapping"
)

const testCustomSchema = "urn:okta:onprem_app:1.0:user:custom"

var testMappingEntries = map[string]string{
	"id":          "EmployeeID,String,isSCIMVariable,isMandatory",
	"userName":    "Login,String,isSCIMVariable,isMandatory",
	"familyName":  "Last,String,isSCIMVariable,isMandatory",
	"givenName":   "First,String,isSCIMVariable,isMandatory",
	"email":       "Mail,String,isSCIMVariable,isMandatory",
	"active":      "Status,String,isSCIMVariable,isMandatory",
	"badgeNumber": "Badge,Integer,isNotSCIMVariable,isNotMandatory",
	"department":  "Dept,String,isNotSCIMVariable,isNotMandatory",
}

// fixedTime renders as 09_03_24__14_05_07.
var fixedTime = time.Date(2024, time.March, 9, 14, 5, 7, 0, time.UTC)

const testHeader = "EmployeeID,Login,Last,First,Mail,Status,Badge,Dept"

func testMappingSet(t *testing.T) *mapping.Set {
	t.Helper()
	set, err := mapping.Parse(testMappingEntries)
	if err != nil {
		t.Fatalf("mapping.Parse() error = %v", err)
	}
	return set
}

func testMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(testMappingSet(t), strings.Split(testHeader, ","), MapperOptions{
		InactiveValue: "inactive",
		CustomSchema:  testCustomSchema,
	})
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	return m
}

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// csvFile joins the header and rows into a CSV document.
func csvFile(rows ...string) string {
	return strings.Join(append([]string{testHeader}, rows...), "\n") + "\n"
}

// snapshotOf builds a published snapshot from records, in order.
func snapshotOf(users ...*UserRecord) *Snapshot {
	b := newSnapshotBuilder()
	for _, u := range users {
		b.put(u)
	}
	return b.build("test.csv", fixedTime)
}

func user(id, userName, family, given, email string) *UserRecord {
	return &UserRecord{
		ID:       id,
		UserName: userName,
		Active:   true,
		Name:     Name{Formatted: family + " " + given, FamilyName: family, GivenName: given},
		Emails:   []Email{{Value: email, Type: "work", Primary: true}},
	}
}

func ids(users []*UserRecord) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
