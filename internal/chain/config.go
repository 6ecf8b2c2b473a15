package chain

// CallIndices locates the runtime calls the wallet builds. Pallet and call
// positions are runtime-specific, so they travel with the chain config
// instead of being hardcoded at the call sites.
type CallIndices struct {
	BalancesPallet    uint8 `yaml:"balances_pallet"`
	TransferKeepAlive uint8 `yaml:"transfer_keep_alive"`
	ContractsPallet   uint8 `yaml:"contracts_pallet"`
	ContractsCall     uint8 `yaml:"contracts_call"`
}

// Config holds connection and runtime parameters for one chain.
// GenesisHash, when set, pins the connection: a node answering with a
// different genesis is rejected during dial.
type Config struct {
	Name          string      `yaml:"name"`
	RPCURLs       []string    `yaml:"rpc_urls"`
	GenesisHash   string      `yaml:"genesis_hash"`
	SS58Prefix    uint16      `yaml:"ss58_prefix"`
	TokenSymbol   string      `yaml:"token_symbol"`
	TokenDecimals uint8       `yaml:"token_decimals"`
	IsTestnet     bool        `yaml:"is_testnet"`
	Calls         CallIndices `yaml:"calls"`
}

// DefaultChains returns the built-in chain configurations. Entries can be
// overridden or extended through the config file.
func DefaultChains() map[string]*Config {
	return map[string]*Config{
		"local": {
			Name:          "Local Contracts Node",
			RPCURLs:       []string{"http://127.0.0.1:9944"},
			SS58Prefix:    42,
			TokenSymbol:   "UNIT",
			TokenDecimals: 12,
			IsTestnet:     true,
			Calls: CallIndices{
				BalancesPallet:    10,
				TransferKeepAlive: 3,
				ContractsPallet:   8,
				ContractsCall:     6,
			},
		},
		"shibuya": {
			Name:          "Shibuya Testnet",
			RPCURLs:       []string{"https://rpc.shibuya.astar.network", "https://shibuya.public.blastapi.io"},
			SS58Prefix:    5,
			TokenSymbol:   "SBY",
			TokenDecimals: 18,
			IsTestnet:     true,
			Calls: CallIndices{
				BalancesPallet:    31,
				TransferKeepAlive: 3,
				ContractsPallet:   70,
				ContractsCall:     6,
			},
		},
		"aleph-zero-testnet": {
			Name:          "Aleph Zero Testnet",
			RPCURLs:       []string{"https://rpc.test.azero.dev"},
			SS58Prefix:    42,
			TokenSymbol:   "TZERO",
			TokenDecimals: 12,
			IsTestnet:     true,
			Calls: CallIndices{
				BalancesPallet:    5,
				TransferKeepAlive: 3,
				ContractsPallet:   12,
				ContractsCall:     6,
			},
		},
	}
}
