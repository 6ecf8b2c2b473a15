package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yolodolo42/subwallet/internal/keyring"
)

// Capabilities describes which signing operations a remote provider exposes
// for its accounts.
type Capabilities struct {
	SignPayload bool `json:"sign_payload"`
	SignRaw     bool `json:"sign_raw"`
}

// Remote proxies signing requests to an external provider daemon over its
// JSON API. The key material stays inside the provider; this type holds only
// the capability to request signatures. Requests can suspend on a user
// approval step inside the provider, so every call takes its deadline from
// ctx rather than the HTTP client.
type Remote struct {
	baseURL string
	account Account
	id      []byte
	caps    Capabilities
	client  *http.Client
}

// NewRemote builds a remote signer for one provider account. httpc may be
// nil, in which case a client without a timeout is used so that approval
// waits are bounded only by ctx.
func NewRemote(baseURL string, account Account, caps Capabilities, httpc *http.Client) (*Remote, error) {
	id, err := keyring.DecodeAddress(account.Address)
	if err != nil {
		return nil, err
	}
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Remote{
		baseURL: baseURL,
		account: account,
		id:      id,
		caps:    caps,
		client:  httpc,
	}, nil
}

// Account returns the provider account this signer is bound to.
func (r *Remote) Account() Account {
	return r.account
}

// Address returns the SS58 address of the provider account.
func (r *Remote) Address() string {
	return r.account.Address
}

// AccountID returns the 32-byte public account identifier.
func (r *Remote) AccountID() []byte {
	return r.id
}

// Algorithm returns the signature scheme reported by the provider.
func (r *Remote) Algorithm() keyring.Algorithm {
	return r.account.Algorithm
}

// Sign requests a transaction payload signature from the provider. Fails
// with ErrPayloadSigningUnsupported when the provider does not expose the
// capability.
func (r *Remote) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	if !r.caps.SignPayload {
		return nil, ErrPayloadSigningUnsupported
	}
	return r.request(ctx, "/api/v1/sign_payload", payload)
}

// SignRaw requests a raw data signature. Fails with ErrRawSigningUnsupported
// when the provider does not expose the capability.
func (r *Remote) SignRaw(ctx context.Context, data []byte) ([]byte, error) {
	if !r.caps.SignRaw {
		return nil, ErrRawSigningUnsupported
	}
	return r.request(ctx, "/api/v1/sign_raw", WrapRaw(data))
}

type signRequest struct {
	Address string `json:"address"`
	Payload string `json:"payload"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r *Remote) request(ctx context.Context, path string, payload []byte) ([]byte, error) {
	body, err := json.Marshal(signRequest{
		Address: r.account.Address,
		Payload: hexutil.Encode(payload),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("provider rejected signing request: %s", e.Error)
		}
		return nil, fmt.Errorf("provider rejected signing request: status %d", resp.StatusCode)
	}

	var out signResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("provider response: %w", err)
	}

	sig, err := hexutil.Decode(out.Signature)
	if err != nil {
		return nil, fmt.Errorf("provider signature: %w", err)
	}
	return sig, nil
}
