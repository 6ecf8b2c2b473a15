// Package cli wires the wallet into a cobra command tree. Commands are
// one-shot: each builds a handle, runs a single operation, and disconnects.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yolodolo42/subwallet/internal/chain"
	"github.com/yolodolo42/subwallet/internal/extrinsic"
	"github.com/yolodolo42/subwallet/internal/keyring"
	"github.com/yolodolo42/subwallet/internal/provider"
	"github.com/yolodolo42/subwallet/internal/ui"
	"github.com/yolodolo42/subwallet/internal/wallet"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "subwallet",
		Short: "Wallet for Substrate chains",
		Long: `subwallet manages accounts, balances, transfers, and contract calls
on Substrate chains.

Keys are either derived locally from a seed phrase or held by an external
signing provider daemon; in the latter case every signature goes through
the provider's approval flow.`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.subwallet/config.yaml)")
	rootCmd.PersistentFlags().String("chain", "local", "chain to operate on")
	rootCmd.PersistentFlags().String("url", "", "RPC URL override for the chain")
	rootCmd.PersistentFlags().String("provider", "", "sign through the named external provider instead of a local seed phrase")
	rootCmd.PersistentFlags().String("scheme", string(keyring.Sr25519), "signature scheme for locally derived keys (sr25519 or ed25519)")
	_ = viper.BindPFlag("chain", rootCmd.PersistentFlags().Lookup("chain"))
	_ = viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("scheme", rootCmd.PersistentFlags().Lookup("scheme"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".subwallet")
		if err := os.MkdirAll(configDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("subwallet")
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()
}

// chainConfig resolves the active chain from the built-in table, with the
// config file and --url able to override its RPC endpoints.
func chainConfig() (*chain.Config, error) {
	name := viper.GetString("chain")
	chains := chain.DefaultChains()
	base, ok := chains[name]
	if !ok {
		known := make([]string, 0, len(chains))
		for n := range chains {
			known = append(known, n)
		}
		return nil, fmt.Errorf("unknown chain %q (known: %s)", name, strings.Join(known, ", "))
	}

	cfg := *base
	if urls := viper.GetStringSlice("chains." + name + ".rpc_urls"); len(urls) > 0 {
		cfg.RPCURLs = urls
	}
	if url := viper.GetString("url"); url != "" {
		cfg.RPCURLs = []string{url}
	}
	return &cfg, nil
}

// seedPhrase resolves the local seed phrase: the SUBWALLET_PHRASE
// environment variable, the config file, or an interactive prompt.
func seedPhrase() (string, error) {
	if phrase := viper.GetString("phrase"); phrase != "" {
		return phrase, nil
	}
	phrase, err := ui.ReadSecret("Seed phrase:")
	if err != nil {
		return "", err
	}
	if phrase == "" {
		return "", fmt.Errorf("seed phrase is required")
	}
	return phrase, nil
}

// spendPolicy reads transfer constraints from the config file:
// policy.allow_dest, policy.deny_dest, and policy.max_per_tx (in token
// units).
func spendPolicy(cfg *chain.Config) (extrinsic.Policy, error) {
	policy := extrinsic.Policy{
		AllowDest: viper.GetStringSlice("policy.allow_dest"),
		DenyDest:  viper.GetStringSlice("policy.deny_dest"),
	}
	if max := viper.GetString("policy.max_per_tx"); max != "" {
		limit, err := ParseAmount(max, cfg.TokenDecimals)
		if err != nil {
			return extrinsic.Policy{}, fmt.Errorf("policy.max_per_tx: %w", err)
		}
		policy.MaxPerTx = limit
	}
	return policy, nil
}

// newHandle builds a ready wallet handle for the active chain, either from a
// local seed phrase or through the configured signing provider.
func newHandle(ctx context.Context) (*wallet.Handle, error) {
	cfg, err := chainConfig()
	if err != nil {
		return nil, err
	}
	policy, err := spendPolicy(cfg)
	if err != nil {
		return nil, err
	}

	if providerName := viper.GetString("provider"); providerName != "" {
		return wallet.Enable(ctx, providerName, wallet.EnableOptions{
			Chain:         cfg,
			Origin:        "subwallet",
			Endpoints:     providerEndpoints(),
			SelectAccount: pickAccount,
			Policy:        policy,
		})
	}

	phrase, err := seedPhrase()
	if err != nil {
		return nil, err
	}
	h, err := wallet.NewEmbedded(wallet.EmbeddedOptions{
		Chain:     cfg,
		Algorithm: keyring.Algorithm(viper.GetString("scheme")),
		Words:     strings.Fields(phrase),
		Policy:    policy,
	})
	if err != nil {
		return nil, err
	}
	if err := h.Init(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func providerEndpoints() []string {
	if eps := viper.GetStringSlice("provider_endpoints"); len(eps) > 0 {
		return eps
	}
	return provider.DefaultEndpoints()
}
