package sfat

// DefaultMultiplier is the hash multiplier written by the common toolchains.
const DefaultMultiplier uint32 = 0x65

// Hash computes the name hash stored in file-allocation table entries.
//
// The accumulator starts at zero and, for each byte b in order, becomes
// b + acc*multiplier modulo 2^32.
func Hash(name []byte, multiplier uint32) uint32 {
	var acc uint32
	for _, b := range name {
		acc = uint32(b) + acc*multiplier
	}
	return acc
}
