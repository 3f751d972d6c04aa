// Package names resolves a name for every file-allocation table entry.
//
// Names come from three tiers, in priority order: the archive's own string
// table, an external manifest matched by hash, and a fallback built from the
// entry hash and a sniffed extension.
package names
