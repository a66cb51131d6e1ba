package race

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// newRand returns a math/rand generator seeded from crypto/rand so separate
// processes never draw the same sequence of room codes or passages.
func newRand() *rand.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}
