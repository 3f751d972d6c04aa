// Package sarc decodes SARC resource archives.
//
// A SARC archive is a flat container: a header, a file-allocation table
// (SFAT) of hashed entries, an optional string table (SFNT) of names, and a
// data section. Entries whose names were stripped are identified only by a
// hash of the name; this package recovers names from the string table,
// from a caller-supplied manifest, or, failing both, synthesizes one from
// the hash and the payload's leading bytes.
//
// # Quick Start
//
// Open an archive and extract it:
//
//	a, err := sarc.Open("theme.szs")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	stats, err := a.Extract(ctx, "out")
//
// Supply a manifest to name entries the archive left unnamed:
//
//	m, err := sarc.LoadManifest("o.json")
//	if err != nil {
//	    return err
//	}
//	a, err := sarc.Open("theme.szs", sarc.WithManifest(m))
//
// Yaz0 and zstd wrapped containers are expanded transparently.
//
// Archive implements fs.FS, fs.StatFS, fs.ReadFileFS and fs.ReadDirFS over
// the resolved names, with directories synthesized from path prefixes.
package sarc
