package breakpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with older hashes.
const (
	DomainDefinitions = "breakpoints/definitions/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data), hex encoded.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash identifies a definition set. Two sets hash equally only when they
// hold the same ranges in the same order, since order fixes registration
// order and therefore the activation order within a batch.
func (d Definitions) Hash() (string, error) {
	if d == nil {
		d = Definitions{}
	}
	data, err := MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("hash definitions: %w", err)
	}
	return hashWithDomain(DomainDefinitions, data), nil
}

// MustHash panics on error. Definitions only hold strings, so it cannot fail
// in practice.
func (d Definitions) MustHash() string {
	h, err := d.Hash()
	if err != nil {
		panic(err)
	}
	return h
}
