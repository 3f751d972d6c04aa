package sfat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meigma/sarc/internal/testutil"
)

func TestHash_KnownValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		multiplier uint32
		want       uint32
	}{
		{"", DefaultMultiplier, 0},
		{"a", DefaultMultiplier, 0x61},
		{"ab", DefaultMultiplier, 0x61*0x65 + 0x62},
		{"o.json", DefaultMultiplier, 0xC3EF161F},
		{"blyt/RdtBase.bflyt", DefaultMultiplier, 0x9E8763C6},
		{"timg/__Combined.bntx", DefaultMultiplier, 0xC3525D09},
		{"ab", 1, 0x61 + 0x62},
		{"ab", 0, 0x62},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Hash([]byte(tt.name), tt.multiplier))
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	names := []string{"blyt/RdtBase.bflyt", "anim/RdtBase_Enter.bflan", "timg/__Combined.bntx"}
	for _, name := range names {
		first := Hash([]byte(name), DefaultMultiplier)
		assert.Equal(t, first, Hash([]byte(name), DefaultMultiplier))
		assert.Equal(t, testutil.Hash(name, DefaultMultiplier), first)
	}
}

func TestHash_Wraps(t *testing.T) {
	t.Parallel()

	long := make([]byte, 4096)
	for i := range long {
		long[i] = 0xFF
	}
	// Must not panic and must agree with the independent implementation.
	assert.Equal(t, testutil.Hash(string(long), 0xFFFFFFFF), Hash(long, 0xFFFFFFFF))
}
