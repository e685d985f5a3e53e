// Package common holds the small value types shared across the ring node:
// content-addressed hashes and wallet addresses.
package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashLength is the size in bytes of a SHA-256 digest.
const HashLength = sha256.Size

// Hash is a SHA-256 digest, hex-encoded lowercase wherever it crosses the
// wire or is used as a map key.
type Hash string

// BytesToHash hashes b with SHA-256 and returns the lowercase hex digest.
func BytesToHash(b []byte) Hash {
	sum := sha256.Sum256(b)
	return Hash(hex.EncodeToString(sum[:]))
}

// Hex returns h unchanged; Hash is already its own hex representation.
func (h Hash) Hex() string { return string(h) }

func (h Hash) String() string { return string(h) }

// IsZero reports whether h is the empty hash.
func (h Hash) IsZero() bool { return h == "" }

// GenesisParentHash is the sentinel previous_hash carried by the genesis
// block; it never appears as a real block's current_hash.
const GenesisParentHash Hash = "1"

// InflationSender is the synthetic sender address of the one-time genesis
// inflation transaction. It never corresponds to a real key pair.
const InflationSender Address = "0"

// Address identifies a wallet by its canonically PEM-encoded
// SubjectPublicKeyInfo public key. Two addresses are equal iff their PEM
// byte strings are equal.
type Address string

func (a Address) String() string { return string(a) }

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool { return a == "" }

// Normalize trims surrounding whitespace a PEM block may pick up when it
// passes through JSON transport, without altering the key material itself.
func (a Address) Normalize() Address {
	return Address(strings.TrimSpace(string(a)))
}
