package signer

import (
	"context"
	"errors"

	"github.com/yolodolo42/subwallet/internal/keyring"
)

var (
	ErrSignerLocked              = errors.New("signer is locked")
	ErrRawSigningUnsupported     = errors.New("provider does not support raw signing")
	ErrPayloadSigningUnsupported = errors.New("provider does not support payload signing")
)

// Signer is the capability every signing identity satisfies. The embedded
// variant signs in-process; the remote variant round-trips to an external
// provider. Different implementations hold their key material differently,
// call sites never inspect which one they have.
type Signer interface {
	// Address returns the SS58 address of the signing account
	Address() string

	// AccountID returns the 32-byte public account identifier
	AccountID() []byte

	// Algorithm returns the signature scheme the account uses
	Algorithm() keyring.Algorithm

	// Sign signs a transaction signing payload and returns the bare
	// signature without the MultiSignature variant prefix
	Sign(ctx context.Context, payload []byte) ([]byte, error)

	// SignRaw signs arbitrary data wrapped in the <Bytes> envelope. Remote
	// providers may park the request on a user approval, so the call can
	// suspend until ctx is done.
	SignRaw(ctx context.Context, data []byte) ([]byte, error)
}

// Type labels the signer variant on an account descriptor.
type Type string

const (
	TypeEmbedded Type = "embedded"
	TypeRemote   Type = "remote"
)

// Account identifies a signing account. Immutable once established.
type Account struct {
	Address     string            `json:"address"`
	Name        string            `json:"name,omitempty"`
	Source      string            `json:"source,omitempty"`
	GenesisHash string            `json:"genesis_hash,omitempty"`
	Algorithm   keyring.Algorithm `json:"algorithm"`
	Type        Type              `json:"type"`
}

// Raw payloads are wrapped before signing so a signed blob can never be
// replayed as a transaction. This mirrors what browser signers do for raw
// requests.
var (
	rawPrefix = []byte("<Bytes>")
	rawSuffix = []byte("</Bytes>")
)

// WrapRaw returns the <Bytes> envelope around data.
func WrapRaw(data []byte) []byte {
	out := make([]byte, 0, len(rawPrefix)+len(data)+len(rawSuffix))
	out = append(out, rawPrefix...)
	out = append(out, data...)
	return append(out, rawSuffix...)
}
