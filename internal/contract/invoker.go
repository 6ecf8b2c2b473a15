package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yolodolo42/subwallet/internal/chain"
	"github.com/yolodolo42/subwallet/internal/codec"
	"github.com/yolodolo42/subwallet/internal/keyring"
)

// revertFlag marks a dry-run that completed but reverted inside the
// contract.
const revertFlag = 0x01

// DispatchError is the decoded on-chain error branch of a dry-run. It is a
// domain error from the runtime, distinct from transport failures, so
// callers can branch on business logic versus infrastructure.
type DispatchError struct {
	Raw json.RawMessage
}

func (e *DispatchError) Error() string {
	var module struct {
		Module struct {
			Index uint8  `json:"index"`
			Error string `json:"error"`
		} `json:"Module"`
	}
	if err := json.Unmarshal(e.Raw, &module); err == nil && module.Module.Error != "" {
		return fmt.Sprintf("contract call rejected: module %d error %s", module.Module.Index, module.Module.Error)
	}
	return fmt.Sprintf("contract call rejected: %s", string(e.Raw))
}

// RevertError reports a contract that trapped or reverted, carrying the
// return data the contract emitted.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("contract reverted with %d bytes of return data", len(e.Data))
}

// CallOptions tune a single query or invocation.
type CallOptions struct {
	// Value is the native balance transferred with the call.
	Value *big.Int
	// GasLimit bounds the dry-run; nil lets the node estimate.
	GasLimit *chain.Weight
	// StorageDepositLimit caps the storage deposit; nil means unlimited.
	StorageDepositLimit *big.Int
}

// Outcome is the result of a dry-run query: the decoded Ok/Err branch plus
// the resource estimate for a real invocation of the same call. The estimate
// is advisory, state can move between dry-run and submission.
type Outcome struct {
	Ok           bool
	Data         []byte
	Flags        uint32
	Err          *DispatchError
	GasConsumed  chain.Weight
	GasRequired  chain.Weight
	DebugMessage string
}

// Reverted reports whether the call completed with the revert flag set.
func (o *Outcome) Reverted() bool {
	return o.Ok && o.Flags&revertFlag != 0
}

// Invoker owns one deployed contract: its parsed interface, its address,
// and the shared chain connection.
type Invoker struct {
	name      string
	meta      *Metadata
	address   string
	accountID []byte
	conn      *chain.Connection
}

// NewInvoker binds a parsed interface description to a deployed address.
func NewInvoker(name string, meta *Metadata, address string, conn *chain.Connection) (*Invoker, error) {
	accountID, err := keyring.DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	return &Invoker{
		name:      name,
		meta:      meta,
		address:   address,
		accountID: accountID,
		conn:      conn,
	}, nil
}

// Name returns the registry name the invoker was loaded under.
func (iv *Invoker) Name() string {
	return iv.name
}

// Address returns the deployed contract address.
func (iv *Invoker) Address() string {
	return iv.address
}

// Metadata returns the parsed interface description.
func (iv *Invoker) Metadata() *Metadata {
	return iv.meta
}

// InputData builds the call input for a message: selector plus the already
// encoded arguments.
func (iv *Invoker) InputData(method string, args []byte) ([]byte, error) {
	msg, err := iv.meta.Message(method)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, msg.Selector...), args...), nil
}

// DryRun queries the contract against current state without mutating it or
// paying fees. The returned outcome carries the weight a real invocation
// would need. A dry-run never touches the account nonce.
func (iv *Invoker) DryRun(ctx context.Context, origin, method string, args []byte, opts CallOptions) (*Outcome, error) {
	input, err := iv.InputData(method, args)
	if err != nil {
		return nil, err
	}

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	req := &chain.ContractCallRequest{
		Origin:    origin,
		Dest:      iv.address,
		Value:     hexutil.EncodeBig(value),
		GasLimit:  opts.GasLimit,
		InputData: hexutil.Encode(input),
	}
	if opts.StorageDepositLimit != nil {
		limit := hexutil.EncodeBig(opts.StorageDepositLimit)
		req.StorageDepositLimit = &limit
	}

	res, err := iv.conn.ContractsCall(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeOutcome(res)
}

func decodeOutcome(res *chain.ContractCallResult) (*Outcome, error) {
	out := &Outcome{
		GasConsumed:  res.GasConsumed,
		GasRequired:  res.GasRequired,
		DebugMessage: res.DebugMessage,
	}

	var branch struct {
		Ok *struct {
			Flags uint32 `json:"flags"`
			Data  string `json:"data"`
		} `json:"Ok"`
		Err json.RawMessage `json:"Err"`
	}
	if err := json.Unmarshal(res.Result, &branch); err != nil {
		return nil, fmt.Errorf("decode dry-run result: %w", err)
	}

	switch {
	case branch.Ok != nil:
		data, err := hexutil.Decode(branch.Ok.Data)
		if err != nil {
			return nil, fmt.Errorf("decode dry-run return data: %w", err)
		}
		out.Ok = true
		out.Flags = branch.Ok.Flags
		out.Data = data
	case branch.Err != nil:
		out.Err = &DispatchError{Raw: branch.Err}
	default:
		return nil, fmt.Errorf("decode dry-run result: neither Ok nor Err in %s", string(res.Result))
	}
	return out, nil
}

// BuildCall builds the state-changing Contracts.call payload bound to a
// weight limit, ready for signing and submission. The weight typically comes
// from a prior DryRun, plus whatever margin the caller chooses; the chain
// can still reject the real call if state moved.
func (iv *Invoker) BuildCall(method string, args []byte, gasLimit chain.Weight, opts CallOptions) ([]byte, error) {
	input, err := iv.InputData(method, args)
	if err != nil {
		return nil, err
	}

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}

	cfg := iv.conn.Config()
	call := []byte{cfg.Calls.ContractsPallet, cfg.Calls.ContractsCall}
	call = append(call, multiAddressID(iv.accountID)...)
	if call, err = codec.AppendCompactBig(call, value); err != nil {
		return nil, err
	}
	call = codec.AppendCompact(call, gasLimit.RefTime)
	call = codec.AppendCompact(call, gasLimit.ProofSize)
	if opts.StorageDepositLimit != nil {
		limit, err := codec.AppendCompactBig(nil, opts.StorageDepositLimit)
		if err != nil {
			return nil, err
		}
		call = codec.AppendOption(call, limit)
	} else {
		call = codec.AppendOption(call, nil)
	}
	return codec.AppendBytes(call, input), nil
}

func multiAddressID(accountID []byte) []byte {
	return append([]byte{0x00}, accountID...)
}
