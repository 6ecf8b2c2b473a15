package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/subwallet/internal/testutil"
)

const (
	testGenesis = "0x1111111111111111111111111111111111111111111111111111111111111111"
	otherHash   = "0x2222222222222222222222222222222222222222222222222222222222222222"
)

func testConfig(urls ...string) *Config {
	return &Config{
		Name:        "testnet",
		RPCURLs:     urls,
		SS58Prefix:  42,
		TokenSymbol: "UNIT",
	}
}

func dialMock(t *testing.T, node *testutil.MockNode) *Connection {
	t.Helper()
	node.HandleResult("chain_getBlockHash", testGenesis)
	conn, err := Dial(context.Background(), testConfig(node.URL()))
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func TestDial(t *testing.T) {
	t.Run("caches the genesis hash", func(t *testing.T) {
		node := testutil.NewMockNode(t)
		conn := dialMock(t, node)

		assert.Equal(t, testGenesis, conn.GenesisHash())
		assert.Equal(t, 1, node.Calls("chain_getBlockHash"))
	})

	t.Run("rejects a node with the wrong genesis", func(t *testing.T) {
		node := testutil.NewMockNode(t)
		node.HandleResult("chain_getBlockHash", otherHash)

		cfg := testConfig(node.URL())
		cfg.GenesisHash = testGenesis
		_, err := Dial(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "genesis mismatch")
	})

	t.Run("falls back to the next url", func(t *testing.T) {
		bad := testutil.NewMockNode(t)
		bad.HandleResult("chain_getBlockHash", otherHash)
		good := testutil.NewMockNode(t)
		good.HandleResult("chain_getBlockHash", testGenesis)

		cfg := testConfig(bad.URL(), good.URL())
		cfg.GenesisHash = testGenesis
		conn, err := Dial(context.Background(), cfg)
		require.NoError(t, err)
		defer conn.Close()
		assert.Equal(t, testGenesis, conn.GenesisHash())
	})

	t.Run("no urls", func(t *testing.T) {
		_, err := Dial(context.Background(), testConfig())
		require.Error(t, err)
	})
}

func TestConnection_Reads(t *testing.T) {
	node := testutil.NewMockNode(t)
	conn := dialMock(t, node)

	node.HandleResult("system_accountNextIndex", 5)
	node.HandleResult("chain_getFinalizedHead", otherHash)
	node.HandleResult("state_getRuntimeVersion", map[string]interface{}{
		"specName":           "contracts-node",
		"specVersion":        268,
		"transactionVersion": 2,
	})

	nonce, err := conn.NextNonce(context.Background(), "5Dfh...")
	require.NoError(t, err)
	assert.Equal(t, uint32(5), nonce)

	head, err := conn.FinalizedHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, otherHash, head)

	v, err := conn.RuntimeVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(268), v.SpecVersion)
	assert.Equal(t, uint32(2), v.TransactionVersion)
}

func TestConnection_AccountInfo(t *testing.T) {
	t.Run("missing record reads as zero balance", func(t *testing.T) {
		node := testutil.NewMockNode(t)
		conn := dialMock(t, node)
		node.HandleResult("state_getStorage", nil)

		info, err := conn.AccountInfo(context.Background(), make([]byte, 32))
		require.NoError(t, err)
		assert.Equal(t, int64(0), info.Free.Int64())
	})

	t.Run("decodes a stored record", func(t *testing.T) {
		node := testutil.NewMockNode(t)
		conn := dialMock(t, node)

		record := encodeAccountRecord(t, 3, big.NewInt(777), big.NewInt(0), big.NewInt(0))
		node.HandleResult("state_getStorage", hexutil.Encode(record))

		info, err := conn.AccountInfo(context.Background(), make([]byte, 32))
		require.NoError(t, err)
		assert.Equal(t, uint32(3), info.Nonce)
		assert.Equal(t, int64(777), info.Free.Int64())
	})
}

func TestConnection_SubmitExtrinsic(t *testing.T) {
	node := testutil.NewMockNode(t)
	conn := dialMock(t, node)

	var submitted string
	node.Handle("author_submitExtrinsic", func(params []json.RawMessage) (interface{}, error) {
		node.UnmarshalParam(params, 0, &submitted)
		return otherHash, nil
	})

	hash, err := conn.SubmitExtrinsic(context.Background(), "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, otherHash, hash)
	assert.Equal(t, "0xdeadbeef", submitted)
}

func TestConnection_WaitIncluded(t *testing.T) {
	node := testutil.NewMockNode(t)

	// Block 1 is the finalized head at subscription time; block 2 includes
	// the extrinsic.
	blockHashes := map[uint64]string{1: otherHash, 2: "0x3333333333333333333333333333333333333333333333333333333333333333"}
	node.Handle("chain_getBlockHash", func(params []json.RawMessage) (interface{}, error) {
		var n uint64
		node.UnmarshalParam(params, 0, &n)
		if n == 0 {
			return testGenesis, nil
		}
		return blockHashes[n], nil
	})

	conn, err := Dial(context.Background(), testConfig(node.URL()))
	require.NoError(t, err)
	defer conn.Close()

	heads := []string{blockHashes[1], blockHashes[2]}
	node.Handle("chain_getFinalizedHead", func([]json.RawMessage) (interface{}, error) {
		h := heads[0]
		if len(heads) > 1 {
			heads = heads[1:]
		}
		return h, nil
	})
	node.Handle("chain_getHeader", func(params []json.RawMessage) (interface{}, error) {
		var hash string
		node.UnmarshalParam(params, 0, &hash)
		for n, h := range blockHashes {
			if h == hash {
				return map[string]string{"number": hexutil.EncodeUint64(n), "parentHash": testGenesis}, nil
			}
		}
		return nil, assert.AnError
	})
	node.Handle("chain_getBlock", func(params []json.RawMessage) (interface{}, error) {
		var hash string
		node.UnmarshalParam(params, 0, &hash)
		exts := []string{"0xother"}
		if hash == blockHashes[2] {
			exts = append(exts, "0xdeadbeef")
		}
		return map[string]interface{}{
			"block": map[string]interface{}{
				"header":     map[string]string{"number": "0x2", "parentHash": otherHash},
				"extrinsics": exts,
			},
		}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ref, err := conn.WaitIncluded(ctx, "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, blockHashes[2], ref.Hash)
	assert.Equal(t, uint64(2), ref.Number)
}

func TestConnection_WaitIncludedAlreadyFinalized(t *testing.T) {
	// The extrinsic landed in the head block before the wait started; the
	// first scan pass must find it without waiting for a poll tick.
	node := testutil.NewMockNode(t)
	conn := dialMock(t, node)

	node.HandleResult("chain_getFinalizedHead", otherHash)
	node.Handle("chain_getHeader", func([]json.RawMessage) (interface{}, error) {
		return map[string]string{"number": "0x1", "parentHash": testGenesis}, nil
	})
	node.Handle("chain_getBlockHash", func(params []json.RawMessage) (interface{}, error) {
		var n uint64
		node.UnmarshalParam(params, 0, &n)
		if n == 0 {
			return testGenesis, nil
		}
		return otherHash, nil
	})
	node.HandleResult("chain_getBlock", map[string]interface{}{
		"block": map[string]interface{}{
			"header":     map[string]string{"number": "0x1", "parentHash": testGenesis},
			"extrinsics": []string{"0xdeadbeef"},
		},
	})

	// Below the poll interval: success proves no tick was needed.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ref, err := conn.WaitIncluded(ctx, "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, otherHash, ref.Hash)
	assert.Equal(t, uint64(1), ref.Number)
}

func TestConnection_WaitIncludedCancel(t *testing.T) {
	node := testutil.NewMockNode(t)
	conn := dialMock(t, node)

	node.HandleResult("chain_getFinalizedHead", otherHash)
	node.Handle("chain_getHeader", func([]json.RawMessage) (interface{}, error) {
		return map[string]string{"number": "0x1", "parentHash": testGenesis}, nil
	})
	node.HandleResult("chain_getBlock", map[string]interface{}{
		"block": map[string]interface{}{
			"header":     map[string]string{"number": "0x1", "parentHash": testGenesis},
			"extrinsics": []string{},
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := conn.WaitIncluded(ctx, "0xdeadbeef")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
