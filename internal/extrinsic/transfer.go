package extrinsic

import (
	"fmt"
	"math/big"

	"github.com/yolodolo42/subwallet/internal/chain"
	"github.com/yolodolo42/subwallet/internal/codec"
	"github.com/yolodolo42/subwallet/internal/keyring"
)

// BuildTransferKeepAlive builds the call payload for a native transfer that
// refuses to reap the sending account.
func BuildTransferKeepAlive(cfg *chain.Config, dest string, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}

	destID, err := keyring.DecodeAddress(dest)
	if err != nil {
		return nil, err
	}

	call := []byte{cfg.Calls.BalancesPallet, cfg.Calls.TransferKeepAlive}
	call = append(call, 0x00) // MultiAddress::Id
	call = append(call, destID...)
	return codec.AppendCompactBig(call, amount)
}
