package signer

import (
	"context"
	"fmt"
	"sync"

	subkey "github.com/vedhavyas/go-subkey/v2"

	"github.com/yolodolo42/subwallet/internal/keyring"
)

// Embedded holds a locally derived keypair and signs synchronously. The key
// material lives in memory only; Lock discards it and every later signing
// call fails with ErrSignerLocked.
type Embedded struct {
	// mu protects pair from concurrent access so signing cannot race with
	// Lock() discarding the key material.
	mu      sync.RWMutex
	pair    subkey.KeyPair
	algo    keyring.Algorithm
	address string
	account []byte
}

// NewEmbedded wraps an already derived keypair.
func NewEmbedded(algo keyring.Algorithm, pair subkey.KeyPair, ss58Prefix uint16) *Embedded {
	return &Embedded{
		pair:    pair,
		algo:    algo,
		address: pair.SS58Address(ss58Prefix),
		account: pair.AccountID(),
	}
}

// DeriveEmbedded derives a keypair from a seed URI and wraps it.
func DeriveEmbedded(algo keyring.Algorithm, uri string, ss58Prefix uint16) (*Embedded, error) {
	pair, err := keyring.Derive(algo, uri)
	if err != nil {
		return nil, err
	}
	return NewEmbedded(algo, pair, ss58Prefix), nil
}

// EmbeddedFromSeed imports a raw 32-byte secret seed.
func EmbeddedFromSeed(algo keyring.Algorithm, seed []byte, ss58Prefix uint16) (*Embedded, error) {
	pair, err := keyring.FromSeed(algo, seed)
	if err != nil {
		return nil, err
	}
	return NewEmbedded(algo, pair, ss58Prefix), nil
}

// Address returns the SS58 address of the keypair.
func (e *Embedded) Address() string {
	return e.address
}

// AccountID returns the 32-byte public account identifier.
func (e *Embedded) AccountID() []byte {
	return e.account
}

// Algorithm returns the signature scheme of the keypair.
func (e *Embedded) Algorithm() keyring.Algorithm {
	return e.algo
}

// Sign signs a transaction signing payload.
func (e *Embedded) Sign(_ context.Context, payload []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.pair == nil {
		return nil, ErrSignerLocked
	}

	sig, err := e.pair.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	return sig, nil
}

// SignRaw signs arbitrary data inside the <Bytes> envelope.
func (e *Embedded) SignRaw(ctx context.Context, data []byte) ([]byte, error) {
	return e.Sign(ctx, WrapRaw(data))
}

// Verify checks a signature produced by Sign against this keypair.
func (e *Embedded) Verify(payload, sig []byte) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.pair == nil {
		return false
	}
	return e.pair.Verify(payload, sig)
}

// Lock discards the keypair reference. Signing after Lock returns
// ErrSignerLocked; the address and account ID remain readable.
func (e *Embedded) Lock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pair = nil
}
