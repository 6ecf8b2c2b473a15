package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrNotFound = errors.New("not found on chain")
)

// inclusionPollInterval paces the finalized-head polling loop in
// WaitIncluded.
const inclusionPollInterval = 2 * time.Second

// RuntimeVersion is the runtime identity a transaction is anchored to.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// BlockRef identifies the block a transaction landed in.
type BlockRef struct {
	Hash   string
	Number uint64
}

// Weight is the two-dimensional resource bound of a call.
type Weight struct {
	RefTime   uint64 `json:"refTime"`
	ProofSize uint64 `json:"proofSize"`
}

// ContractCallRequest is the dry-run request handed to the contracts
// runtime API over RPC.
type ContractCallRequest struct {
	Origin              string  `json:"origin"`
	Dest                string  `json:"dest"`
	Value               string  `json:"value"`
	GasLimit            *Weight `json:"gasLimit"`
	StorageDepositLimit *string `json:"storageDepositLimit"`
	InputData           string  `json:"inputData"`
}

// ContractCallResult carries the dry-run outcome. Result stays raw here; the
// contract layer owns its interpretation.
type ContractCallResult struct {
	GasConsumed  Weight          `json:"gasConsumed"`
	GasRequired  Weight          `json:"gasRequired"`
	DebugMessage string          `json:"debugMessage"`
	Result       json.RawMessage `json:"result"`
}

// Connection is one wallet's handle to a chain node. It is established once,
// used for every read and submission the wallet performs, and torn down with
// an explicit Close. Safe for concurrent reads; submission ordering is the
// caller's concern.
type Connection struct {
	cfg     *Config
	rpc     *rpc.Client
	genesis string
	url     string
}

// Dial connects to the first reachable RPC URL of the chain config. Every
// candidate is identity-checked against the configured genesis hash before
// being accepted, so a mispointed URL cannot silently bind the wallet to the
// wrong chain.
func Dial(ctx context.Context, cfg *Config) (*Connection, error) {
	if len(cfg.RPCURLs) == 0 {
		return nil, fmt.Errorf("chain %q has no rpc urls", cfg.Name)
	}

	var lastErr error
	for _, url := range cfg.RPCURLs {
		client, err := rpc.DialContext(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		var genesis string
		if err := client.CallContext(ctx, &genesis, "chain_getBlockHash", 0); err != nil {
			client.Close()
			lastErr = err
			continue
		}

		if cfg.GenesisHash != "" && !strings.EqualFold(cfg.GenesisHash, genesis) {
			client.Close()
			lastErr = fmt.Errorf("genesis mismatch on %s: expected %s, got %s", url, cfg.GenesisHash, genesis)
			continue
		}

		return &Connection{cfg: cfg, rpc: client, genesis: genesis, url: url}, nil
	}

	return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Name, lastErr)
}

// Config returns the chain config the connection was dialed with.
func (c *Connection) Config() *Config {
	return c.cfg
}

// GenesisHash returns the genesis hash reported by the node at dial time.
func (c *Connection) GenesisHash() string {
	return c.genesis
}

// FinalizedHead returns the hash of the latest finalized block.
func (c *Connection) FinalizedHead(ctx context.Context) (string, error) {
	var hash string
	if err := c.rpc.CallContext(ctx, &hash, "chain_getFinalizedHead"); err != nil {
		return "", fmt.Errorf("fetch finalized head: %w", err)
	}
	return hash, nil
}

// RuntimeVersion returns the node's current runtime version.
func (c *Connection) RuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	var v RuntimeVersion
	if err := c.rpc.CallContext(ctx, &v, "state_getRuntimeVersion"); err != nil {
		return nil, fmt.Errorf("fetch runtime version: %w", err)
	}
	return &v, nil
}

// NextNonce returns the next transaction index for an account. The value
// reflects state known to this node; back-to-back submissions that do not
// await inclusion can still collide.
func (c *Connection) NextNonce(ctx context.Context, address string) (uint32, error) {
	var nonce uint32
	if err := c.rpc.CallContext(ctx, &nonce, "system_accountNextIndex", address); err != nil {
		return 0, fmt.Errorf("fetch account nonce: %w", err)
	}
	return nonce, nil
}

// GetStorage reads raw storage at key. Returns ErrNotFound for empty
// entries.
func (c *Connection) GetStorage(ctx context.Context, key string) ([]byte, error) {
	var raw *string
	if err := c.rpc.CallContext(ctx, &raw, "state_getStorage", key); err != nil {
		return nil, fmt.Errorf("read storage: %w", err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	data, err := hexutil.Decode(*raw)
	if err != nil {
		return nil, fmt.Errorf("decode storage value: %w", err)
	}
	return data, nil
}

// AccountInfo reads the system account record for an account ID. A missing
// record decodes as the zero record, matching on-chain semantics for
// untouched accounts.
func (c *Connection) AccountInfo(ctx context.Context, accountID []byte) (*AccountInfo, error) {
	data, err := c.GetStorage(ctx, SystemAccountKey(accountID))
	if errors.Is(err, ErrNotFound) {
		return &AccountInfo{Free: new(big.Int), Reserved: new(big.Int)}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeAccountInfo(data)
}

// ContractsCall performs a dry-run contract call against current state.
func (c *Connection) ContractsCall(ctx context.Context, req *ContractCallRequest) (*ContractCallResult, error) {
	var res ContractCallResult
	if err := c.rpc.CallContext(ctx, &res, "contracts_call", req); err != nil {
		return nil, fmt.Errorf("contract dry-run: %w", err)
	}
	return &res, nil
}

// SubmitExtrinsic submits a signed extrinsic and returns its hash. There is
// no retry: resubmitting after an ambiguous failure risks burning a second
// nonce.
func (c *Connection) SubmitExtrinsic(ctx context.Context, extrinsic string) (string, error) {
	var hash string
	if err := c.rpc.CallContext(ctx, &hash, "author_submitExtrinsic", extrinsic); err != nil {
		return "", fmt.Errorf("submit extrinsic: %w", err)
	}
	return hash, nil
}

type blockHeader struct {
	Number     string `json:"number"`
	ParentHash string `json:"parentHash"`
}

type signedBlock struct {
	Block struct {
		Header     blockHeader `json:"header"`
		Extrinsics []string    `json:"extrinsics"`
	} `json:"block"`
}

// WaitIncluded polls finalized blocks until one contains the given extrinsic
// and returns its block reference. The scan starts at the block finalized
// when the wait begins: the extrinsic may already have landed between
// submission and this call. Every finalized block is scanned exactly once.
// Cancellation is the caller's timeout: the chain itself gives no signal for
// a transaction that never lands.
func (c *Connection) WaitIncluded(ctx context.Context, extrinsic string) (BlockRef, error) {
	startHash, err := c.FinalizedHead(ctx)
	if err != nil {
		return BlockRef{}, err
	}
	next, err := c.headerNumber(ctx, startHash)
	if err != nil {
		return BlockRef{}, err
	}

	ticker := time.NewTicker(inclusionPollInterval)
	defer ticker.Stop()

	for {
		headHash, err := c.FinalizedHead(ctx)
		if err != nil {
			return BlockRef{}, err
		}
		head, err := c.headerNumber(ctx, headHash)
		if err != nil {
			return BlockRef{}, err
		}

		for ; next <= head; next++ {
			ref, found, err := c.scanBlock(ctx, next, extrinsic)
			if err != nil {
				return BlockRef{}, err
			}
			if found {
				return ref, nil
			}
		}

		select {
		case <-ctx.Done():
			return BlockRef{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Connection) headerNumber(ctx context.Context, hash string) (uint64, error) {
	var header blockHeader
	if err := c.rpc.CallContext(ctx, &header, "chain_getHeader", hash); err != nil {
		return 0, fmt.Errorf("fetch header: %w", err)
	}
	n, err := hexutil.DecodeUint64(header.Number)
	if err != nil {
		return 0, fmt.Errorf("decode block number %q: %w", header.Number, err)
	}
	return n, nil
}

func (c *Connection) scanBlock(ctx context.Context, number uint64, extrinsic string) (BlockRef, bool, error) {
	var hash string
	if err := c.rpc.CallContext(ctx, &hash, "chain_getBlockHash", number); err != nil {
		return BlockRef{}, false, fmt.Errorf("fetch block hash: %w", err)
	}

	var block signedBlock
	if err := c.rpc.CallContext(ctx, &block, "chain_getBlock", hash); err != nil {
		return BlockRef{}, false, fmt.Errorf("fetch block: %w", err)
	}

	for _, ext := range block.Block.Extrinsics {
		if strings.EqualFold(ext, extrinsic) {
			return BlockRef{Hash: hash, Number: number}, true, nil
		}
	}
	return BlockRef{}, false, nil
}

// Close tears the connection down. The owning wallet is unusable afterwards.
func (c *Connection) Close() {
	c.rpc.Close()
}
