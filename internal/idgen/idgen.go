// Package idgen produces record ids and project identifiers.
package idgen

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idLength is the number of base36 characters after the "c" prefix.
// 16 random bytes need at most 25 base36 digits; 24 keeps ~124 bits.
const idLength = 24

// Generator hands out fresh record ids.
type Generator interface {
	NewID() string
}

// EncodeBase36 converts a byte slice to a base36 string of specified length.
// Shorter results are zero-padded; longer ones keep the least significant digits.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)
	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var result strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		result.WriteByte(chars[i])
	}

	str := result.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// Random generates collision-resistant ids of the form "c" + 24 base36
// characters from a v4 UUID.
type Random struct{}

// NewID returns a fresh random id.
func (Random) NewID() string {
	u := uuid.New()
	return "c" + EncodeBase36(u[:], idLength)
}

// Sequence generates predictable ids ("prefix-1", "prefix-2", ...).
// Safe for concurrent use.
type Sequence struct {
	Prefix string

	mu   sync.Mutex
	next int
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, s.next)
}
