package extrinsic

import (
	"fmt"
	"math/big"
)

// Policy enforces safety constraints before a transfer is signed.
type Policy struct {
	MaxPerTx  *big.Int
	AllowDest []string
	DenyDest  []string
}

// Validate applies simple allow/deny and spend limits.
func (p Policy) Validate(dest string, amount *big.Int) error {
	if amount == nil {
		return fmt.Errorf("amount missing")
	}

	for _, d := range p.DenyDest {
		if d == dest {
			return fmt.Errorf("destination denied by policy")
		}
	}
	if len(p.AllowDest) > 0 {
		allowed := false
		for _, d := range p.AllowDest {
			if d == dest {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("destination not in allowlist")
		}
	}
	if p.MaxPerTx != nil && amount.Cmp(p.MaxPerTx) > 0 {
		return fmt.Errorf("amount exceeds max per tx limit")
	}
	return nil
}
