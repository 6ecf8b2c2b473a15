package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yolodolo42/subwallet/internal/provider"
	"github.com/yolodolo42/subwallet/internal/signer"
	"github.com/yolodolo42/subwallet/internal/ui"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List reachable external signing providers",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	discovery := provider.NewDiscovery("subwallet", providerEndpoints())
	providers, err := discovery.Discover(cmd.Context())
	if err != nil {
		return err
	}

	for _, p := range providers {
		caps := "sign-payload"
		if p.Capabilities.SignRaw {
			caps += ", sign-raw"
		}
		fmt.Printf("%s %s %s\n",
			ui.AddressStyle.Render(p.Name),
			ui.LabelStyle.Render(p.Version),
			ui.LabelStyle.Render("("+caps+") "+p.URL))
	}
	return nil
}

// pickAccount resolves which provider account to bind when several are
// exposed.
func pickAccount(accounts []signer.Account) (signer.Account, error) {
	items := make([]ui.SelectorItem, len(accounts))
	byAddress := make(map[string]signer.Account, len(accounts))
	for i, acc := range accounts {
		items[i] = ui.SelectorItem{
			ID:          acc.Address,
			Label:       acc.Name,
			Description: acc.Address,
		}
		byAddress[acc.Address] = acc
	}

	chosen, err := ui.Select("Select account", items)
	if err != nil {
		return signer.Account{}, err
	}
	if chosen == "" {
		return signer.Account{}, fmt.Errorf("no account selected")
	}
	return byAddress[chosen], nil
}
