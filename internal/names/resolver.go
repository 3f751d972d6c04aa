package names

import (
	"fmt"

	"github.com/meigma/sarc/internal/cursor"
	"github.com/meigma/sarc/internal/sarctype"
	"github.com/meigma/sarc/internal/sfat"
	"github.com/meigma/sarc/internal/sniff"
)

// sniffLen is how many leading payload bytes are read for sniffing.
const sniffLen = 4

// Resolution is the outcome of resolving one table entry.
type Resolution struct {
	Entry sarctype.Entry
	Node  sfat.Node

	// Note is a non-fatal finding, or nil. It wraps ErrUnresolvedName when
	// the name was synthesized, ErrHashMismatch when an embedded name does
	// not hash to the stored value, or a string-table lookup failure.
	Note error
}

// Result holds every resolution in table order plus manifest accounting.
type Result struct {
	Entries []Resolution

	// Unmatched lists manifest names that bound no entry: their hash matches
	// no entry, or only entries already named by the string table.
	Unmatched []string

	// Collisions lists manifest names dropped by the first-wins policy.
	Collisions []Collision

	// Unreferenced lists string-table names, in storage order, that no
	// entry's name offset points at.
	Unreferenced []string
}

// Resolver binds names to the entries of one parsed archive.
type Resolver struct {
	layout  *sfat.Layout
	c       *cursor.Cursor
	table   *StringTable
	mapping *Mapping
}

// NewResolver creates a resolver. manifest may be nil.
func NewResolver(layout *sfat.Layout, c *cursor.Cursor, manifest *Manifest) *Resolver {
	r := &Resolver{
		layout: layout,
		c:      c,
		table:  NewStringTable(c, layout.NamesStart, layout.NamesEnd),
	}
	if manifest != nil {
		r.mapping = manifest.Bind(layout.Table.HashMultiplier)
	}
	return r
}

// Resolve names every entry in table order. The only error it returns is a
// failure to read payload bytes for sniffing.
func (r *Resolver) Resolve() (*Result, error) {
	res := &Result{
		Entries:    make([]Resolution, 0, len(r.layout.Nodes)),
		Collisions: r.mapping.Collisions(),
	}
	bound := make(map[uint32]struct{})
	used := make(map[uint32]struct{}, len(r.layout.Nodes))
	for i, n := range r.layout.Nodes {
		one, err := r.resolveOne(i, n)
		if err != nil {
			return nil, err
		}
		res.Entries = append(res.Entries, one)
		if one.Entry.Source == sarctype.NameManifest {
			bound[n.Hash] = struct{}{}
		}
		if n.HasEmbeddedName() {
			used[n.NameOffset()] = struct{}{}
		}
	}
	res.Unmatched = r.mapping.Unmatched(bound)
	for off, name := range r.table.All() {
		if _, ok := used[off]; !ok {
			res.Unreferenced = append(res.Unreferenced, name)
		}
	}
	return res, nil
}

func (r *Resolver) resolveOne(i int, n sfat.Node) (Resolution, error) {
	start, end := r.layout.PayloadRange(n)
	res := Resolution{
		Node:  n,
		Entry: sarctype.Entry{Index: i, Hash: n.Hash, Start: start, End: end},
	}

	if n.HasEmbeddedName() {
		name, err := r.table.Lookup(n.NameOffset())
		switch {
		case err != nil:
			res.Note = fmt.Errorf("entry %d: %w", i, err)
		case name == "":
			res.Note = fmt.Errorf("entry %d: empty embedded name: %w", i, sarctype.ErrUnresolvedName)
		default:
			res.Entry.Name = name
			res.Entry.Source = sarctype.NameEmbedded
			if h := sfat.Hash([]byte(name), r.layout.Table.HashMultiplier); h != n.Hash {
				res.Note = fmt.Errorf("entry %d: %q hashes to %08X, table has %08X: %w",
					i, name, h, n.Hash, sarctype.ErrHashMismatch)
			}
			return res, nil
		}
	} else if name, ok := r.mapping.Lookup(n.Hash); ok {
		res.Entry.Name = name
		res.Entry.Source = sarctype.NameManifest
		return res, nil
	}

	ext, err := r.sniff(start, end)
	if err != nil {
		return Resolution{}, fmt.Errorf("entry %d: sniff payload: %w", i, err)
	}
	res.Entry.Name = fmt.Sprintf("%08X%s", n.Hash, ext)
	res.Entry.Source = sarctype.NameSniffed
	if res.Note == nil {
		res.Note = fmt.Errorf("entry %d: %w", i, sarctype.ErrUnresolvedName)
	}
	return res, nil
}

func (r *Resolver) sniff(start, end uint64) (string, error) {
	head, err := r.c.Bytes(start, min(end-start, sniffLen))
	if err != nil {
		return "", err
	}
	return sniff.Extension(head), nil
}
