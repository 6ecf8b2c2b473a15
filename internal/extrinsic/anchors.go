// Package extrinsic binds unsigned call payloads to chain state and signs
// them: it fetches the anchor set (nonce, genesis hash, finalized block
// hash, runtime version), assembles the signing payload, and produces the
// signed envelope through whichever signing identity is active.
package extrinsic

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yolodolo42/subwallet/internal/chain"
)

// Anchors is the chain state a transaction is bound to before signing.
// An anchor set is captured immediately before signing and is not reusable
// across submissions: the nonce goes stale as soon as a transaction lands.
type Anchors struct {
	Nonce              uint32
	GenesisHash        []byte
	BlockHash          []byte
	SpecVersion        uint32
	TransactionVersion uint32
}

// FetchAnchors captures a fresh anchor set for the account. Any failed fetch
// aborts the whole capture; a partial anchor set is never returned.
func FetchAnchors(ctx context.Context, conn *chain.Connection, address string) (*Anchors, error) {
	nonce, err := conn.NextNonce(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("anchor nonce: %w", err)
	}

	genesis, err := hexutil.Decode(conn.GenesisHash())
	if err != nil {
		return nil, fmt.Errorf("anchor genesis hash: %w", err)
	}

	head, err := conn.FinalizedHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("anchor block hash: %w", err)
	}
	blockHash, err := hexutil.Decode(head)
	if err != nil {
		return nil, fmt.Errorf("anchor block hash: %w", err)
	}

	version, err := conn.RuntimeVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("anchor runtime version: %w", err)
	}

	return &Anchors{
		Nonce:              nonce,
		GenesisHash:        genesis,
		BlockHash:          blockHash,
		SpecVersion:        version.SpecVersion,
		TransactionVersion: version.TransactionVersion,
	}, nil
}
