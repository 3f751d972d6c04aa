package sarc

import "github.com/meigma/sarc/internal/sfat"

// DefaultHashMultiplier is the multiplier nearly every archive uses.
const DefaultHashMultiplier = sfat.DefaultMultiplier

// Hash returns the SARC name hash of name: each byte is added to the
// running value after multiplying it by multiplier, modulo 2^32.
func Hash(name string, multiplier uint32) uint32 {
	return sfat.Hash([]byte(name), multiplier)
}
