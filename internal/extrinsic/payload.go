package extrinsic

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"

	"github.com/yolodolo42/subwallet/internal/codec"
	"github.com/yolodolo42/subwallet/internal/keyring"
)

const (
	formatVersion = 4
	signedBit     = 0x80

	// immortalEra transactions stay valid from genesis. Mortality belongs
	// to the wire-format tooling, not the wallet.
	immortalEra = 0x00

	// multiAddressID introduces a MultiAddress carrying a full account ID.
	multiAddressID = 0x00
)

var ErrMalformedExtrinsic = errors.New("malformed extrinsic")

// appendExtra appends the signed-extension payload fields that are included
// in both the signing payload and the envelope: era, nonce, tip.
func appendExtra(dst []byte, a *Anchors, tip *big.Int) ([]byte, error) {
	dst = append(dst, immortalEra)
	dst = codec.AppendCompact(dst, uint64(a.Nonce))
	if tip == nil {
		tip = new(big.Int)
	}
	return codec.AppendCompactBig(dst, tip)
}

// BuildSigningPayload assembles the bytes a signer commits to: the call,
// the extra fields, and the additional anchors (runtime versions, genesis
// hash, block hash). Payloads longer than 256 bytes are signed by their
// blake2-256 hash, per the format.
func BuildSigningPayload(call []byte, a *Anchors, tip *big.Int) ([]byte, error) {
	out := make([]byte, 0, len(call)+80)
	out = append(out, call...)

	var err error
	if out, err = appendExtra(out, a, tip); err != nil {
		return nil, err
	}

	out = codec.AppendUint32(out, a.SpecVersion)
	out = codec.AppendUint32(out, a.TransactionVersion)
	out = append(out, a.GenesisHash...)
	out = append(out, a.BlockHash...)

	if len(out) > 256 {
		h := blake2b.Sum256(out)
		return h[:], nil
	}
	return out, nil
}

// BuildSigned wraps a call and its signature into the version-4 signed
// envelope: length prefix, version byte with the signed bit, the signer's
// MultiAddress, the MultiSignature, the extra fields, and the call.
func BuildSigned(call []byte, accountID []byte, algo keyring.Algorithm, sig []byte, a *Anchors, tip *big.Int) ([]byte, error) {
	variant, err := algo.SignatureVariant()
	if err != nil {
		return nil, err
	}
	if len(accountID) != 32 {
		return nil, fmt.Errorf("%w: account id must be 32 bytes", ErrMalformedExtrinsic)
	}
	if len(sig) != 64 {
		return nil, fmt.Errorf("%w: signature must be 64 bytes", ErrMalformedExtrinsic)
	}

	body := make([]byte, 0, len(call)+128)
	body = append(body, signedBit|formatVersion)
	body = append(body, multiAddressID)
	body = append(body, accountID...)
	body = append(body, variant)
	body = append(body, sig...)
	if body, err = appendExtra(body, a, tip); err != nil {
		return nil, err
	}
	body = append(body, call...)

	return codec.AppendBytes(nil, body), nil
}

// BuildUnsigned wraps a bare call into the unsigned envelope.
func BuildUnsigned(call []byte) []byte {
	body := make([]byte, 0, len(call)+1)
	body = append(body, formatVersion)
	body = append(body, call...)
	return codec.AppendBytes(nil, body)
}

// IsSigned reports whether an encoded extrinsic carries a signature. This is
// a structural check of the envelope, not a cryptographic verification.
func IsSigned(extrinsic []byte) bool {
	length, n, err := codec.DecodeCompact(extrinsic)
	if err != nil || length == 0 || len(extrinsic) < n+1 {
		return false
	}
	version := extrinsic[n]
	return version&signedBit != 0 && version&^byte(signedBit) == formatVersion
}

// Hash returns the blake2-256 hash identifying an encoded extrinsic.
func Hash(extrinsic []byte) []byte {
	h := blake2b.Sum256(extrinsic)
	return h[:]
}
