package sarc

import (
	_ "crypto/sha256" // digest.Canonical
	"encoding/binary"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/sarc/internal/sfat"
	"github.com/meigma/sarc/internal/sniff"
)

// Verification is the outcome of checking an entry's name against its hash.
type Verification uint8

const (
	// Unverified means the name was synthesized, so there is nothing to check.
	Unverified Verification = iota

	// Verified means the name hashes to the stored value.
	Verified

	// Mismatch means the name does not hash to the stored value.
	Mismatch
)

// String returns the verification status name.
func (v Verification) String() string {
	switch v {
	case Verified:
		return "ok"
	case Mismatch:
		return "mismatch"
	default:
		return "unverified"
	}
}

// EntryReport describes one entry for diagnostics.
type EntryReport struct {
	Entry

	// Attributes is the raw attribute word from the table.
	Attributes uint32

	// EmbeddedName reports whether the attributes flag a string-table name.
	EmbeddedName bool

	// NameOffset is the byte offset of the embedded name in the string table.
	NameOffset uint32

	// Magic holds up to the first four payload bytes.
	Magic []byte

	// Extension is the extension the payload's leading bytes map to.
	Extension string

	// Digest is the sha256 digest of the payload.
	Digest digest.Digest

	// Verification is the name/hash check result.
	Verification Verification

	// Note is the resolution finding for this entry, or nil.
	Note error
}

// Report is a diagnostic view of a decoded archive.
type Report struct {
	Format         Format
	ByteOrder      binary.ByteOrder
	HashMultiplier uint32
	FileSize       uint32
	DataOffset     uint32
	Entries        []EntryReport

	// Unmatched lists manifest names that bound no entry.
	Unmatched []string

	// Collisions lists manifest names dropped by the first-wins policy.
	Collisions []Collision

	// UnreferencedNames lists string-table names that no entry points at.
	UnreferencedNames []string
}

// Inspect reads every payload and returns a diagnostic report.
func (a *Archive) Inspect() (*Report, error) {
	r := &Report{
		Format:         a.format,
		ByteOrder:      a.layout.Order,
		HashMultiplier: a.layout.Table.HashMultiplier,
		FileSize:       a.layout.Archive.FileSize,
		DataOffset:     a.layout.Archive.DataOffset,
		Entries:        make([]EntryReport, len(a.entries)),
		Unmatched:      a.Unmatched(),
		Collisions:     a.Collisions(),

		UnreferencedNames: append([]string(nil), a.orphans...),
	}
	notes := make(map[int]error, len(a.notes))
	for _, n := range a.notes {
		notes[n.Index] = n.Err
	}

	for i := range a.entries {
		e := &a.entries[i]
		node := a.nodes[i]
		er := EntryReport{
			Entry:        *e,
			Attributes:   node.Attributes,
			EmbeddedName: node.HasEmbeddedName(),
			Note:         notes[i],
		}
		if er.EmbeddedName {
			er.NameOffset = node.NameOffset()
		}

		//nolint:gosec // range validated against the source size during parse
		section := io.NewSectionReader(a.src, int64(e.Start), int64(e.Size()))
		head := make([]byte, min(e.Size(), 4))
		if n, err := section.ReadAt(head, 0); n < len(head) {
			return nil, fmt.Errorf("entry %d: read magic: %w", i, err)
		}
		er.Magic = sniff.Magic(head)
		er.Extension = sniff.Extension(head)

		dgst, err := digest.FromReader(section)
		if err != nil {
			return nil, fmt.Errorf("entry %d: digest payload: %w", i, err)
		}
		er.Digest = dgst

		if e.Source != NameSniffed {
			er.Verification = Mismatch
			if sfat.Hash([]byte(e.Name), r.HashMultiplier) == e.Hash {
				er.Verification = Verified
			}
		}
		r.Entries[i] = er
	}
	return r, nil
}
