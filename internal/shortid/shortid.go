// Package shortid generates short, human-legible random tokens used to build
// hierarchical quiz, question and answer identifiers.
package shortid

import "crypto/rand"

// Alphabet is Crockford's base32: digits plus upper-case letters without I, L, O and U.
const Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// DefaultLength is the token length used for quiz sub-ids and child segments.
const DefaultLength = 5

// Generate returns a random token of the given length drawn uniformly from Alphabet.
// A non-positive length falls back to DefaultLength.
func Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic("shortid: crypto/rand unavailable: " + err.Error())
	}
	// 256 is a multiple of 32, so masking keeps the distribution uniform.
	for i, b := range buf {
		buf[i] = Alphabet[b&31]
	}
	return string(buf)
}

// New returns a token of DefaultLength.
func New() string {
	return Generate(DefaultLength)
}
