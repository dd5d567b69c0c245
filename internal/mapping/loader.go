package mapping

// loader.go reads mapping files from disk.
//
// The canonical format is a Java-style .properties file, which is what
// existing connector deployments already have. YAML is accepted for
// deployments that keep the rest of their configuration in YAML; keys and
// values are the same 4-tuple strings.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Format identifies a mapping file syntax.
type Format string

const (
	FormatProperties Format = "properties"
	FormatYAML       Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
// Anything that is not .yaml/.yml is read as properties.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatProperties
	}
}

// LoadFile reads and parses the mapping file at path.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open column mapping: %w", err)
	}
	defer f.Close()

	set, err := Load(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("column mapping %s: %w", path, err)
	}
	return set, nil
}

// Load parses a mapping document in the given format.
func Load(r io.Reader, format Format) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read column mapping: %w", err)
	}

	var entries map[string]string
	switch format {
	case FormatYAML:
		entries, err = decodeYAML(data)
	default:
		entries, err = decodeProperties(data)
	}
	if err != nil {
		return nil, err
	}
	return Parse(entries)
}

func decodeProperties(data []byte) (map[string]string, error) {
	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	return p.Map(), nil
}

func decodeYAML(data []byte) (map[string]string, error) {
	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return entries, nil
}
