// Package provider discovers external signing providers: daemons that hold
// key material on the user's behalf and expose a small JSON API for account
// listing and signing. The wallet never sees provider keys, only the call
// surface.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yolodolo42/subwallet/internal/signer"
)

var (
	ErrNoProviderInstalled = errors.New("no signing provider installed")
	ErrUnknownProvider     = errors.New("unknown signing provider")
	ErrNoAccountsAvailable = errors.New("provider exposes no accounts")
)

// Descriptor identifies one reachable provider.
type Descriptor struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Capabilities signer.Capabilities `json:"capabilities"`
	URL          string              `json:"-"`
}

// Discovery probes a fixed set of candidate endpoints. The origin name is
// sent with every request so providers can attribute the requesting
// application.
type Discovery struct {
	origin    string
	endpoints []string
	client    *http.Client
}

// DefaultEndpoints returns the endpoints probed when none are configured.
func DefaultEndpoints() []string {
	return []string{"http://127.0.0.1:9955"}
}

// NewDiscovery builds a Discovery over the given endpoints. Probes use a
// short per-request timeout; signing calls made later through a resolved
// signer are not bounded by it.
func NewDiscovery(origin string, endpoints []string) *Discovery {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints()
	}
	return &Discovery{
		origin:    origin,
		endpoints: endpoints,
		client:    &http.Client{Timeout: 3 * time.Second},
	}
}

// Discover probes every endpoint and returns the providers that answered, in
// endpoint order. Zero reachable providers is terminal for this call: the
// caller decides whether to ask again.
func (d *Discovery) Discover(ctx context.Context) ([]Descriptor, error) {
	var found []Descriptor
	for _, endpoint := range d.endpoints {
		desc, err := d.probe(ctx, endpoint)
		if err != nil {
			continue
		}
		found = append(found, desc)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: probed %d endpoint(s)", ErrNoProviderInstalled, len(d.endpoints))
	}
	return found, nil
}

// Find re-runs discovery scoped to a single named provider.
func (d *Discovery) Find(ctx context.Context, name string) (Descriptor, error) {
	providers, err := d.Discover(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	for _, p := range providers {
		if p.Name == name {
			return p, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Accounts lists the accounts a provider exposes. The genesis hash scopes
// the request so providers can filter chain-bound accounts.
func (d *Discovery) Accounts(ctx context.Context, desc Descriptor, genesisHash string) ([]signer.Account, error) {
	url := desc.URL + "/api/v1/accounts"
	if genesisHash != "" {
		url += "?genesis_hash=" + genesisHash
	}

	var accounts []signer.Account
	if err := d.get(ctx, url, &accounts); err != nil {
		return nil, fmt.Errorf("list accounts from %q: %w", desc.Name, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoAccountsAvailable, desc.Name)
	}
	for i := range accounts {
		accounts[i].Source = desc.Name
		accounts[i].Type = signer.TypeRemote
	}
	return accounts, nil
}

// Signer resolves a remote signer for one of the provider's accounts.
func (d *Discovery) Signer(desc Descriptor, account signer.Account) (*signer.Remote, error) {
	return signer.NewRemote(desc.URL, account, desc.Capabilities, nil)
}

func (d *Discovery) probe(ctx context.Context, endpoint string) (Descriptor, error) {
	var desc Descriptor
	if err := d.get(ctx, endpoint+"/api/v1/provider", &desc); err != nil {
		return Descriptor{}, err
	}
	if desc.Name == "" {
		return Descriptor{}, fmt.Errorf("endpoint %q returned an unnamed provider", endpoint)
	}
	desc.URL = endpoint
	return desc, nil
}

func (d *Discovery) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Origin-Name", d.origin)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
