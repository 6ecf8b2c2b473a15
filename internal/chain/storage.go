package chain

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pierrec/xxHash/xxHash64"
	"golang.org/x/crypto/blake2b"

	"github.com/yolodolo42/subwallet/internal/codec"
)

// AccountInfo is the decoded System.Account record.
type AccountInfo struct {
	Nonce       uint32
	Consumers   uint32
	Providers   uint32
	Sufficients uint32
	Free        *big.Int
	Reserved    *big.Int
	Frozen      *big.Int
}

// twox128 is the non-cryptographic hash used for pallet and item prefixes:
// two seeded xxhash64 rounds, little-endian concatenated.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxHash64.Checksum(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxHash64.Checksum(data, 1))
	return out
}

// blake2_128Concat hashes the key and appends the key itself, the standard
// map hasher for account-keyed storage.
func blake2_128Concat(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err) // keyless blake2b cannot fail
	}
	h.Write(data)
	return append(h.Sum(nil), data...)
}

// SystemAccountKey builds the storage key of System.Account for an account
// ID, hex-encoded for the RPC.
func SystemAccountKey(accountID []byte) string {
	key := twox128([]byte("System"))
	key = append(key, twox128([]byte("Account"))...)
	key = append(key, blake2_128Concat(accountID)...)
	return hexutil.Encode(key)
}

// DecodeAccountInfo decodes a System.Account storage value. The frozen field
// is absent on older runtimes and decodes as zero.
func DecodeAccountInfo(data []byte) (*AccountInfo, error) {
	if len(data) < 48 {
		return nil, fmt.Errorf("account record too short: %d bytes", len(data))
	}

	info := &AccountInfo{Frozen: new(big.Int)}
	var err error
	if info.Nonce, err = codec.DecodeUint32(data[0:]); err != nil {
		return nil, err
	}
	if info.Consumers, err = codec.DecodeUint32(data[4:]); err != nil {
		return nil, err
	}
	if info.Providers, err = codec.DecodeUint32(data[8:]); err != nil {
		return nil, err
	}
	if info.Sufficients, err = codec.DecodeUint32(data[12:]); err != nil {
		return nil, err
	}
	if info.Free, err = codec.DecodeUint128(data[16:]); err != nil {
		return nil, err
	}
	if info.Reserved, err = codec.DecodeUint128(data[32:]); err != nil {
		return nil, err
	}
	if len(data) >= 64 {
		if info.Frozen, err = codec.DecodeUint128(data[48:]); err != nil {
			return nil, err
		}
	}
	return info, nil
}
