package extrinsic

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/subwallet/internal/codec"
	"github.com/yolodolo42/subwallet/internal/keyring"
)

func testAnchors() *Anchors {
	genesis := bytes.Repeat([]byte{0xaa}, 32)
	block := bytes.Repeat([]byte{0xbb}, 32)
	return &Anchors{
		Nonce:              5,
		GenesisHash:        genesis,
		BlockHash:          block,
		SpecVersion:        268,
		TransactionVersion: 2,
	}
}

func TestBuildSigningPayload(t *testing.T) {
	t.Run("exact layout", func(t *testing.T) {
		call := []byte{0x0a, 0x03, 0x01, 0x02}

		payload, err := BuildSigningPayload(call, testAnchors(), nil)
		require.NoError(t, err)

		want := append([]byte{}, call...)
		want = append(want, 0x00) // immortal era
		want = append(want, 0x14) // compact nonce 5
		want = append(want, 0x00) // compact tip 0
		want = codec.AppendUint32(want, 268)
		want = codec.AppendUint32(want, 2)
		want = append(want, bytes.Repeat([]byte{0xaa}, 32)...)
		want = append(want, bytes.Repeat([]byte{0xbb}, 32)...)

		assert.Equal(t, want, payload)
	})

	t.Run("long payloads are hashed", func(t *testing.T) {
		call := make([]byte, 300)

		payload, err := BuildSigningPayload(call, testAnchors(), nil)
		require.NoError(t, err)
		assert.Len(t, payload, 32)
	})

	t.Run("tip is bound in", func(t *testing.T) {
		call := []byte{0x0a, 0x03}

		withTip, err := BuildSigningPayload(call, testAnchors(), big.NewInt(1000))
		require.NoError(t, err)
		without, err := BuildSigningPayload(call, testAnchors(), nil)
		require.NoError(t, err)

		assert.NotEqual(t, without, withTip)
	})
}

func TestBuildSigned(t *testing.T) {
	call := []byte{0x0a, 0x03, 0xff}
	accountID := bytes.Repeat([]byte{0x11}, 32)
	sig := bytes.Repeat([]byte{0x22}, 64)

	ext, err := BuildSigned(call, accountID, keyring.Sr25519, sig, testAnchors(), nil)
	require.NoError(t, err)

	// Strip the length prefix and check the envelope structure.
	length, n, err := codec.DecodeCompact(ext)
	require.NoError(t, err)
	body := ext[n:]
	require.Len(t, body, int(length))

	assert.Equal(t, byte(0x84), body[0])   // signed bit | version 4
	assert.Equal(t, byte(0x00), body[1])   // MultiAddress::Id
	assert.Equal(t, accountID, body[2:34]) // signer
	assert.Equal(t, byte(0x01), body[34])  // sr25519 signature variant
	assert.Equal(t, sig, body[35:99])      // signature
	assert.Equal(t, byte(0x00), body[99])  // era
	assert.Equal(t, byte(0x14), body[100]) // nonce 5
	assert.Equal(t, byte(0x00), body[101]) // tip 0
	assert.Equal(t, call, body[102:])      // the call itself

	t.Run("ed25519 variant byte", func(t *testing.T) {
		ext, err := BuildSigned(call, accountID, keyring.Ed25519, sig, testAnchors(), nil)
		require.NoError(t, err)
		_, n, err := codec.DecodeCompact(ext)
		require.NoError(t, err)
		assert.Equal(t, byte(0x00), ext[n:][34])
	})

	t.Run("rejects malformed inputs", func(t *testing.T) {
		_, err := BuildSigned(call, accountID[:10], keyring.Sr25519, sig, testAnchors(), nil)
		assert.ErrorIs(t, err, ErrMalformedExtrinsic)

		_, err = BuildSigned(call, accountID, keyring.Sr25519, sig[:63], testAnchors(), nil)
		assert.ErrorIs(t, err, ErrMalformedExtrinsic)
	})
}

func TestIsSigned(t *testing.T) {
	call := []byte{0x0a, 0x03, 0xff}
	accountID := bytes.Repeat([]byte{0x11}, 32)
	sig := bytes.Repeat([]byte{0x22}, 64)

	signed, err := BuildSigned(call, accountID, keyring.Sr25519, sig, testAnchors(), nil)
	require.NoError(t, err)

	assert.True(t, IsSigned(signed))
	assert.False(t, IsSigned(BuildUnsigned(call)))
	assert.False(t, IsSigned(nil))
	assert.False(t, IsSigned([]byte{0x00}))
}

func TestHash(t *testing.T) {
	a := Hash([]byte{0x01})
	b := Hash([]byte{0x02})
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Hash([]byte{0x01}))
}
