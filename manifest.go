package sarc

import (
	"bytes"
	"fmt"
	"os"

	"github.com/meigma/sarc/internal/names"
)

type (
	// Manifest is an ordered list of file names used to name entries that
	// carry only a hash. When two names hash alike, the first one wins.
	Manifest = names.Manifest

	// Collision records a manifest name dropped because an earlier name
	// had the same hash.
	Collision = names.Collision
)

// ManifestRecord is one declared file.
type ManifestRecord struct {
	FileName string `json:"FileName"`
}

// NewManifest builds a manifest from records, in order.
func NewManifest(records ...ManifestRecord) *Manifest {
	list := make([]string, len(records))
	for i, r := range records {
		list[i] = r.FileName
	}
	return names.NewManifest(list...)
}

// ParseManifestJSON parses a manifest of the form
// {"Files":[{"FileName":"..."}]}.
func ParseManifestJSON(data []byte) (*Manifest, error) {
	return names.ParseJSON(data)
}

// ParseManifestText parses a manifest with one name per line. Blank lines
// and lines starting with '#' are ignored.
func ParseManifestText(data []byte) (*Manifest, error) {
	return names.ParseText(bytes.NewReader(data))
}

// LoadManifest reads a manifest file. Content starting with '{' or '['
// is parsed as JSON, anything else as text. A UTF-8 byte-order mark is
// ignored.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	trimmed := bytes.TrimSpace(data)
	var m *Manifest
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		m, err = ParseManifestJSON(trimmed)
	} else {
		m, err = ParseManifestText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
