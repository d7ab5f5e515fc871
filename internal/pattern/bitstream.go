package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Digest returns the hex SHA-256 of token. It is the only seed of the micro-pattern.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// BitStream expands a digest into an unbounded deterministic bit sequence:
// the concatenation of SHA-256("<seed>:0"), SHA-256("<seed>:1"), ... read
// most significant bit first.
type BitStream struct {
	seed    string
	counter int
	block   [sha256.Size]byte
	pos     int // next bit within block; len(block)*8 means exhausted
}

// NewBitStream starts a stream at counter 0.
func NewBitStream(seed string) *BitStream {
	return &BitStream{seed: seed, pos: sha256.Size * 8}
}

// Next returns the next bit.
func (s *BitStream) Next() bool {
	if s.pos == sha256.Size*8 {
		s.block = sha256.Sum256([]byte(s.seed + ":" + strconv.Itoa(s.counter)))
		s.counter++
		s.pos = 0
	}
	b := s.block[s.pos/8]
	bit := b&(0x80>>uint(s.pos%8)) != 0
	s.pos++
	return bit
}

// Take returns the next n bits.
func (s *BitStream) Take(n int) []bool {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = s.Next()
	}
	return bits
}
