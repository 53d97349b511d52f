package service

import (
	"crypto/sha256"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultCodeLength is the length of generated codes before any collision.
	DefaultCodeLength = 6
	// MinCodeLength and MaxCodeLength bound the configurable generated length.
	MinCodeLength = 4
	MaxCodeLength = 43
	// MaxShortCodeLength is the longest code a record may carry.
	MaxShortCodeLength = 50
)

// base62 alphabet: 0-9, a-z, A-Z
const elements = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeGenerator derives short codes from the SHA-256 of a fresh random seed.
type CodeGenerator struct {
	length int
	seed   func() string
}

// NewCodeGenerator returns a generator producing codes of the given length,
// clamped to [MinCodeLength, MaxCodeLength].
func NewCodeGenerator(length int) *CodeGenerator {
	switch {
	case length <= 0:
		length = DefaultCodeLength
	case length < MinCodeLength:
		length = MinCodeLength
	case length > MaxCodeLength:
		length = MaxCodeLength
	}

	return &CodeGenerator{
		length: length,
		seed:   uuid.NewString,
	}
}

// Generate returns a candidate code for the given attempt number.
// Every third collision widens the code by one character.
func (g *CodeGenerator) Generate(attempt int) string {
	n := g.length + attempt/3
	if n > MaxCodeLength {
		n = MaxCodeLength
	}
	return hashToShort(g.seed(), n)
}

// hashToShort hashes s with SHA-256, encodes the digest in base62 and
// keeps the first n characters.
func hashToShort(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	encoded := toBase62(sum[:])

	if len(encoded) < MaxCodeLength {
		encoded = strings.Repeat("0", MaxCodeLength-len(encoded)) + encoded
	}

	return encoded[:n]
}

func toBase62(b []byte) string {
	value := new(big.Int).SetBytes(b)
	base := big.NewInt(int64(len(elements)))
	mod := new(big.Int)

	var sb []byte
	for value.Sign() > 0 {
		value.DivMod(value, base, mod)
		sb = append(sb, elements[mod.Int64()])
	}

	// digits were produced least significant first
	for i, j := 0, len(sb)-1; i < j; i, j = i+1, j-1 {
		sb[i], sb[j] = sb[j], sb[i]
	}

	return string(sb)
}
