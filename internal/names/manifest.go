package names

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/meigma/sarc/internal/sfat"
)

// ErrInvalidManifest is returned when manifest content cannot be parsed.
var ErrInvalidManifest = errors.New("sarc: invalid manifest")

// Manifest is an ordered list of declared file names. Hashes are computed
// when the manifest is bound to an archive's multiplier.
type Manifest struct {
	names []string
}

// NewManifest returns a manifest declaring names in order. Empty names are
// dropped.
func NewManifest(names ...string) *Manifest {
	m := &Manifest{names: make([]string, 0, len(names))}
	for _, name := range names {
		if name != "" {
			m.names = append(m.names, name)
		}
	}
	return m
}

// Names returns the declared names in order.
func (m *Manifest) Names() []string {
	return append([]string(nil), m.names...)
}

// Len returns the number of declared names.
func (m *Manifest) Len() int {
	return len(m.names)
}

// ParseJSON reads a manifest of the form {"Files":[{"FileName":"..."}]}.
// A top-level array of records, and the lower-case "fileName" key, are also
// accepted.
func ParseJSON(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidManifest)
	}
	root := gjson.ParseBytes(data)
	records := root.Get("Files")
	if !records.Exists() {
		records = root.Get("files")
	}
	if !records.Exists() && root.IsArray() {
		records = root
	}
	if !records.IsArray() {
		return nil, fmt.Errorf("%w: missing Files array", ErrInvalidManifest)
	}

	var names []string
	var bad error
	records.ForEach(func(_, rec gjson.Result) bool {
		name := rec.Get("FileName")
		if !name.Exists() {
			name = rec.Get("fileName")
		}
		if name.Type != gjson.String {
			bad = fmt.Errorf("%w: record %d has no FileName", ErrInvalidManifest, len(names))
			return false
		}
		names = append(names, name.String())
		return true
	})
	if bad != nil {
		return nil, bad
	}
	return NewManifest(names...), nil
}

// ParseText reads one name per line. Blank lines and lines starting with
// '#' are ignored; surrounding whitespace is trimmed.
func ParseText(r io.Reader) (*Manifest, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return NewManifest(names...), nil
}

// Collision records a manifest name dropped because an earlier name had the
// same hash.
type Collision struct {
	Hash    uint32
	Kept    string
	Dropped string
}

// Mapping is a manifest bound to a hash multiplier. When two declared names
// hash alike, the first one declared wins.
type Mapping struct {
	byHash     map[uint32]string
	order      []uint32
	collisions []Collision
}

// Bind hashes every declared name with multiplier.
func (m *Manifest) Bind(multiplier uint32) *Mapping {
	mp := &Mapping{byHash: make(map[uint32]string, len(m.names))}
	for _, name := range m.names {
		h := sfat.Hash([]byte(name), multiplier)
		if kept, ok := mp.byHash[h]; ok {
			if kept != name {
				mp.collisions = append(mp.collisions, Collision{Hash: h, Kept: kept, Dropped: name})
			}
			continue
		}
		mp.byHash[h] = name
		mp.order = append(mp.order, h)
	}
	return mp
}

// Lookup returns the name bound to hash.
func (mp *Mapping) Lookup(hash uint32) (string, bool) {
	if mp == nil {
		return "", false
	}
	name, ok := mp.byHash[hash]
	return name, ok
}

// Collisions returns the names dropped by the first-wins policy.
func (mp *Mapping) Collisions() []Collision {
	if mp == nil {
		return nil
	}
	return append([]Collision(nil), mp.collisions...)
}

// Unmatched returns, in declaration order, the names whose hash is not in
// bound.
func (mp *Mapping) Unmatched(bound map[uint32]struct{}) []string {
	if mp == nil {
		return nil
	}
	var out []string
	for _, h := range mp.order {
		if _, ok := bound[h]; !ok {
			out = append(out, mp.byHash[h])
		}
	}
	return out
}
