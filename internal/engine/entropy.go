package engine

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Entropy is the single random-number collaborator the engine needs:
// one 32-bit value per discovery attempt, to pick this remote's
// ephemeral device id.
type Entropy interface {
	Uint32() uint32
}

// CryptoEntropy draws from crypto/rand, falling back to math/rand if
// the system CSPRNG is unavailable — grounded on the teacher pack's
// GeneratePairingKey, which makes the same trade for the same reason.
type CryptoEntropy struct{}

func (CryptoEntropy) Uint32() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return binary.BigEndian.Uint32(buf[:])
	}
	return mrand.Uint32()
}
