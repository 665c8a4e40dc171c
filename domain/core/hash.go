package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// DeriveSeed mixes a base seed with a stream name into a new seed. The same
// (name, base) pair always produces the same value, so independently named
// random streams stay reproducible while never sharing state.
func DeriveSeed(name string, base int64) int64 {
	buf := make([]byte, 8+len(name))
	binary.BigEndian.PutUint64(buf[:8], uint64(base))
	copy(buf[8:], name)
	sum := sha256.Sum256(buf)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
