// Package canonical implements the single serialization used for every
// hash in the node: JSON with lexicographically sorted object keys, no
// insignificant whitespace, UTF-8 bytes. Every node in the ring must
// produce byte-identical output for the same value, so this is the only
// place that marshals anything destined for a SHA-256 digest.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Marshal encodes v as compact JSON with every object's keys sorted
// lexicographically, matching Python's json.dumps(sort_keys=True) that
// the reference node implementation hashes against.
//
// v is first marshaled the ordinary way (so struct field tags and
// nested types are respected), then decoded into a generic tree with
// json.Number preserving integer precision, then re-marshaled — Go's
// encoding/json sorts map[string]interface{} keys on encode, which is
// what gives the recursive sort-keys behavior for free.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	// Encode appends a trailing newline; strip it so the digest does not
	// depend on that implementation detail.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Hash returns the lowercase hex SHA-256 digest of v's canonical encoding.
func Hash(v interface{}) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
