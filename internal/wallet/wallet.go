// Package wallet exposes the single handle callers hold: one signing
// identity, one chain connection, and a registry of loaded contracts.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yolodolo42/subwallet/internal/chain"
	"github.com/yolodolo42/subwallet/internal/contract"
	"github.com/yolodolo42/subwallet/internal/extrinsic"
	"github.com/yolodolo42/subwallet/internal/keyring"
	"github.com/yolodolo42/subwallet/internal/provider"
	"github.com/yolodolo42/subwallet/internal/signer"
)

var (
	ErrNotInitialized     = errors.New("wallet is not initialized")
	ErrAlreadyInitialized = errors.New("wallet is already initialized")
	ErrDisconnected       = errors.New("wallet is disconnected, construct a new handle to reconnect")
	ErrContractExists     = errors.New("contract name already registered")
	ErrUnknownContract    = errors.New("contract not registered")
)

// State tracks the handle lifecycle. Only Ready permits chain operations;
// Disconnected is terminal.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EnableFailedError wraps whatever broke while enabling a wallet through an
// external provider.
type EnableFailedError struct {
	Provider string
	Cause    error
}

func (e *EnableFailedError) Error() string {
	return fmt.Sprintf("enable wallet through provider %q: %v", e.Provider, e.Cause)
}

func (e *EnableFailedError) Unwrap() error {
	return e.Cause
}

// Handle is the wallet façade. One handle owns one signing identity and one
// chain connection for its whole lifetime.
//
// Handles do not serialize concurrent writes: the chain requires nonce order
// per account, and two concurrent SignAndSubmit calls can capture the same
// nonce. Callers either await each submission's inclusion before issuing the
// next or manage nonces explicitly through the binder.
type Handle struct {
	mu        sync.RWMutex
	state     State
	cfg       *chain.Config
	account   signer.Account
	id        signer.Signer
	conn      *chain.Connection
	binder    *extrinsic.Binder
	contracts map[string]*contract.Invoker
	policy    extrinsic.Policy
}

// EmbeddedOptions configures a wallet around a locally derived keypair.
type EmbeddedOptions struct {
	Chain     *chain.Config
	Algorithm keyring.Algorithm
	// Words is the seed phrase. Seed is the raw 32-byte alternative for
	// keypair import; exactly one of the two is set.
	Words []string
	Seed  []byte
	// Optional derivation junctions, applied phrase-first: //Hard then /Soft.
	HardDerivation string
	SoftDerivation string
	Name           string
	Policy         extrinsic.Policy
}

// NewEmbedded derives the signing identity and returns an uninitialized
// handle. No connection is made until Init.
func NewEmbedded(opts EmbeddedOptions) (*Handle, error) {
	if opts.Chain == nil {
		return nil, fmt.Errorf("chain config is required")
	}

	var (
		id  *signer.Embedded
		err error
	)
	switch {
	case opts.Seed != nil:
		id, err = signer.EmbeddedFromSeed(opts.Algorithm, opts.Seed, opts.Chain.SS58Prefix)
	case len(opts.Words) > 0:
		uri := keyring.SeedURI(strings.Join(opts.Words, " "), opts.HardDerivation, opts.SoftDerivation)
		id, err = signer.DeriveEmbedded(opts.Algorithm, uri, opts.Chain.SS58Prefix)
	default:
		err = fmt.Errorf("%w: neither seed phrase nor raw seed given", keyring.ErrInvalidKeySource)
	}
	if err != nil {
		return nil, err
	}

	return &Handle{
		state: StateUninitialized,
		cfg:   opts.Chain,
		account: signer.Account{
			Address:   id.Address(),
			Name:      opts.Name,
			Algorithm: opts.Algorithm,
			Type:      signer.TypeEmbedded,
		},
		id:        id,
		contracts: make(map[string]*contract.Invoker),
		policy:    opts.Policy,
	}, nil
}

// Init opens the chain connection and moves the handle to Ready. A handle is
// initialized at most once; a disconnected handle cannot be revived.
func (h *Handle) Init(ctx context.Context) error {
	h.mu.Lock()
	switch h.state {
	case StateUninitialized:
		h.state = StateInitializing
	case StateDisconnected:
		h.mu.Unlock()
		return ErrDisconnected
	default:
		h.mu.Unlock()
		return ErrAlreadyInitialized
	}
	h.mu.Unlock()

	conn, err := chain.Dial(ctx, h.cfg)
	if err != nil {
		h.mu.Lock()
		h.state = StateUninitialized
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	h.conn = conn
	h.binder = extrinsic.NewBinder(conn, h.id)
	h.account.GenesisHash = conn.GenesisHash()
	h.state = StateReady
	h.mu.Unlock()
	return nil
}

// EnableOptions configures wallet construction through an external signing
// provider.
type EnableOptions struct {
	Chain     *chain.Config
	Origin    string
	Endpoints []string
	// SelectAccount picks which provider account to bind when several are
	// exposed. Nil binds the first.
	SelectAccount func([]signer.Account) (signer.Account, error)
	Policy        extrinsic.Policy
}

// Enable discovers the named provider, binds one of its accounts as the
// signing identity, opens the chain connection, and returns a Ready handle.
// Every failure comes back as an EnableFailedError wrapping the cause.
func Enable(ctx context.Context, providerName string, opts EnableOptions) (*Handle, error) {
	if opts.Chain == nil {
		return nil, &EnableFailedError{Provider: providerName, Cause: fmt.Errorf("chain config is required")}
	}

	discovery := provider.NewDiscovery(opts.Origin, opts.Endpoints)
	desc, err := discovery.Find(ctx, providerName)
	if err != nil {
		return nil, &EnableFailedError{Provider: providerName, Cause: err}
	}

	conn, err := chain.Dial(ctx, opts.Chain)
	if err != nil {
		return nil, &EnableFailedError{Provider: providerName, Cause: err}
	}

	accounts, err := discovery.Accounts(ctx, desc, conn.GenesisHash())
	if err != nil {
		conn.Close()
		return nil, &EnableFailedError{Provider: providerName, Cause: err}
	}
	account := accounts[0]
	if opts.SelectAccount != nil {
		account, err = opts.SelectAccount(accounts)
		if err != nil {
			conn.Close()
			return nil, &EnableFailedError{Provider: providerName, Cause: err}
		}
	}
	account.GenesisHash = conn.GenesisHash()

	id, err := discovery.Signer(desc, account)
	if err != nil {
		conn.Close()
		return nil, &EnableFailedError{Provider: providerName, Cause: err}
	}

	return &Handle{
		state:     StateReady,
		cfg:       opts.Chain,
		account:   account,
		id:        id,
		conn:      conn,
		binder:    extrinsic.NewBinder(conn, id),
		contracts: make(map[string]*contract.Invoker),
		policy:    opts.Policy,
	}, nil
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Account returns the identity bound to the handle.
func (h *Handle) Account() signer.Account {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.account
}

// Address returns the SS58 address of the identity.
func (h *Handle) Address() string {
	return h.Account().Address
}

// ready returns the connection after checking the state machine window.
func (h *Handle) ready() (*chain.Connection, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	switch h.state {
	case StateReady:
		return h.conn, nil
	case StateDisconnected:
		return nil, ErrDisconnected
	default:
		return nil, ErrNotInitialized
	}
}

// LoadContract parses an interface description and registers it under a
// caller-chosen name. Purely local bookkeeping, no chain call. Names are
// unique per handle: loading over an existing name is rejected rather than
// rebound, since a silent rebind would change which deployed code later
// invokes hit.
func (h *Handle) LoadContract(name string, interfaceDescription []byte, address string) error {
	conn, err := h.ready()
	if err != nil {
		return err
	}

	meta, err := contract.ParseMetadata(interfaceDescription)
	if err != nil {
		return err
	}
	inv, err := contract.NewInvoker(name, meta, address, conn)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.contracts[name]; exists {
		return fmt.Errorf("%w: %q", ErrContractExists, name)
	}
	h.contracts[name] = inv
	return nil
}

// Contract returns a registered contract invoker.
func (h *Handle) Contract(name string) (*contract.Invoker, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	inv, ok := h.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContract, name)
	}
	return inv, nil
}

// Contracts returns the names of all registered contracts.
func (h *Handle) Contracts() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.contracts))
	for name := range h.contracts {
		names = append(names, name)
	}
	return names
}

// Receipt reports a submitted extrinsic: its hash and the finalized block
// it was observed in.
type Receipt struct {
	ExtrinsicHash string
	Block         chain.BlockRef
}

// SignAndSubmit anchors, signs, and submits a call payload, then blocks
// until it is observed in a finalized block. The anchor set is captured
// fresh for each call and never reused.
func (h *Handle) SignAndSubmit(ctx context.Context, call []byte) (Receipt, error) {
	conn, err := h.ready()
	if err != nil {
		return Receipt{}, err
	}

	h.mu.RLock()
	binder := h.binder
	h.mu.RUnlock()

	ext, err := binder.Sign(ctx, call, nil)
	if err != nil {
		return Receipt{}, err
	}

	encoded := hexutil.Encode(ext)
	if _, err := conn.SubmitExtrinsic(ctx, encoded); err != nil {
		return Receipt{}, err
	}
	ref, err := conn.WaitIncluded(ctx, encoded)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{
		ExtrinsicHash: hexutil.Encode(extrinsic.Hash(ext)),
		Block:         ref,
	}, nil
}

// DryRun performs a read-only contract query and returns the full outcome,
// including the weight estimate a following Invoke can bind.
func (h *Handle) DryRun(ctx context.Context, name, method string, args []byte, opts contract.CallOptions) (*contract.Outcome, error) {
	if _, err := h.ready(); err != nil {
		return nil, err
	}
	inv, err := h.Contract(name)
	if err != nil {
		return nil, err
	}
	return inv.DryRun(ctx, h.Address(), method, args, opts)
}

// Query performs a dry-run and unwraps its Ok branch. The Err branch comes
// back as a DispatchError and a revert as a RevertError, both distinct from
// transport failures, so callers can branch on contract logic versus
// infrastructure.
func (h *Handle) Query(ctx context.Context, name, method string, args []byte, opts contract.CallOptions) ([]byte, error) {
	out, err := h.DryRun(ctx, name, method, args, opts)
	if err != nil {
		return nil, err
	}
	if out.Err != nil {
		return nil, out.Err
	}
	if out.Reverted() {
		return nil, &contract.RevertError{Data: out.Data}
	}
	return out.Data, nil
}

// Invoke submits the real state-changing contract call bound to the given
// weight limit. It is deliberately not fused with a dry-run: a failed query
// must never consume a nonce, and the caller decides whether a dry-run
// estimate is still fresh enough to submit against.
func (h *Handle) Invoke(ctx context.Context, name, method string, args []byte, gasLimit chain.Weight, opts contract.CallOptions) (Receipt, error) {
	if _, err := h.ready(); err != nil {
		return Receipt{}, err
	}
	inv, err := h.Contract(name)
	if err != nil {
		return Receipt{}, err
	}
	call, err := inv.BuildCall(method, args, gasLimit, opts)
	if err != nil {
		return Receipt{}, err
	}
	return h.SignAndSubmit(ctx, call)
}

// GetBalance reads the account's free balance. No caching: every call
// re-queries current state.
func (h *Handle) GetBalance(ctx context.Context) (*big.Int, error) {
	conn, err := h.ready()
	if err != nil {
		return nil, err
	}
	info, err := conn.AccountInfo(ctx, h.id.AccountID())
	if err != nil {
		return nil, err
	}
	return info.Free, nil
}

// Transfer sends native balance after the spend policy admits the
// destination and amount.
func (h *Handle) Transfer(ctx context.Context, dest string, amount *big.Int) (Receipt, error) {
	if _, err := h.ready(); err != nil {
		return Receipt{}, err
	}
	if err := h.policy.Validate(dest, amount); err != nil {
		return Receipt{}, err
	}
	call, err := extrinsic.BuildTransferKeepAlive(h.cfg, dest, amount)
	if err != nil {
		return Receipt{}, err
	}
	return h.SignAndSubmit(ctx, call)
}

// SignData signs arbitrary bytes through the active identity. For remote
// identities this suspends on the provider's approval step.
func (h *Handle) SignData(ctx context.Context, data []byte) ([]byte, error) {
	if _, err := h.ready(); err != nil {
		return nil, err
	}
	return h.id.SignRaw(ctx, data)
}

// VerifySignature reports whether an encoded extrinsic is structurally
// signed. It distinguishes signed from unsigned payloads, it does not prove
// who signed.
func (h *Handle) VerifySignature(ext []byte) bool {
	return extrinsic.IsSigned(ext)
}

// Disconnect closes the connection and moves the handle to its terminal
// state. A new handle must be constructed to reconnect.
func (h *Handle) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateDisconnected {
		return
	}
	if h.conn != nil {
		h.conn.Close()
	}
	h.state = StateDisconnected
}
