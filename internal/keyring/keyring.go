// Package keyring derives signing keypairs from seed phrases. The
// cryptography itself is delegated to go-subkey; this package only builds the
// derivation URI and picks the signature scheme.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	subkey "github.com/vedhavyas/go-subkey/v2"
	"github.com/vedhavyas/go-subkey/v2/ed25519"
	"github.com/vedhavyas/go-subkey/v2/sr25519"
)

var (
	ErrInvalidKeySource = errors.New("invalid key source")
	ErrUnknownAlgorithm = errors.New("unknown key algorithm")
)

// Algorithm selects the signature scheme for a keypair.
type Algorithm string

const (
	Sr25519 Algorithm = "sr25519"
	Ed25519 Algorithm = "ed25519"
)

// Scheme returns the go-subkey scheme for the algorithm.
func (a Algorithm) Scheme() (subkey.Scheme, error) {
	switch a {
	case Sr25519:
		return sr25519.Scheme{}, nil
	case Ed25519:
		return ed25519.Scheme{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
}

// SignatureVariant returns the MultiSignature variant index for the
// algorithm.
func (a Algorithm) SignatureVariant() (byte, error) {
	switch a {
	case Ed25519:
		return 0x00, nil
	case Sr25519:
		return 0x01, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
	}
}

// SeedURI builds the derivation string consumed by the keyring: the phrase,
// then "//<hard>" and "/<soft>" when the segments are present. Straight
// concatenation, no normalization; a malformed phrase surfaces when the URI
// is derived.
func SeedURI(phrase, hard, soft string) string {
	var b strings.Builder
	b.WriteString(phrase)
	if hard != "" {
		b.WriteString("//")
		b.WriteString(hard)
	}
	if soft != "" {
		b.WriteString("/")
		b.WriteString(soft)
	}
	return b.String()
}

// Derive produces a keypair from a derivation URI (phrase plus optional
// junctions, as built by SeedURI).
func Derive(algo Algorithm, uri string) (subkey.KeyPair, error) {
	scheme, err := algo.Scheme()
	if err != nil {
		return nil, err
	}
	pair, err := subkey.DeriveKeyPair(scheme, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySource, err)
	}
	return pair, nil
}

// FromSeed imports a raw 32-byte secret seed.
func FromSeed(algo Algorithm, seed []byte) (subkey.KeyPair, error) {
	scheme, err := algo.Scheme()
	if err != nil {
		return nil, err
	}
	if len(seed) != 32 {
		return nil, fmt.Errorf("%w: expected 32 byte seed, got %d", ErrInvalidKeySource, len(seed))
	}
	pair, err := scheme.FromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySource, err)
	}
	return pair, nil
}

// DecodeAddress decodes an SS58 address into its 32-byte account ID.
func DecodeAddress(address string) ([]byte, error) {
	_, id, err := subkey.SS58Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address %q: %w", address, err)
	}
	return id, nil
}
