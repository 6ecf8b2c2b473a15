package extrinsic

import (
	"context"
	"fmt"
	"math/big"

	"github.com/yolodolo42/subwallet/internal/chain"
	"github.com/yolodolo42/subwallet/internal/signer"
)

// Binder turns unsigned call payloads into fully anchored, signed
// extrinsics. It does not serialize concurrent use: two in-flight Sign calls
// for one account can capture the same nonce, so callers issue writes one at
// a time or manage nonces out of band.
type Binder struct {
	conn *chain.Connection
	id   signer.Signer
}

// NewBinder binds a connection and a signing identity.
func NewBinder(conn *chain.Connection, id signer.Signer) *Binder {
	return &Binder{conn: conn, id: id}
}

// Sign captures a fresh anchor set and signs the call with it.
func (b *Binder) Sign(ctx context.Context, call []byte, tip *big.Int) ([]byte, error) {
	anchors, err := FetchAnchors(ctx, b.conn, b.id.Address())
	if err != nil {
		return nil, err
	}
	return b.SignWithAnchors(ctx, call, anchors, tip)
}

// SignWithAnchors signs the call against a caller-supplied anchor set, for
// callers that manage nonces explicitly.
func (b *Binder) SignWithAnchors(ctx context.Context, call []byte, anchors *Anchors, tip *big.Int) ([]byte, error) {
	payload, err := BuildSigningPayload(call, anchors, tip)
	if err != nil {
		return nil, fmt.Errorf("build signing payload: %w", err)
	}

	sig, err := b.id.Sign(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("sign extrinsic: %w", err)
	}

	return BuildSigned(call, b.id.AccountID(), b.id.Algorithm(), sig, anchors, tip)
}
