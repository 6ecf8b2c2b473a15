package cli

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yolodolo42/subwallet/internal/extrinsic"
	"github.com/yolodolo42/subwallet/internal/keyring"
	"github.com/yolodolo42/subwallet/internal/ui"
	"github.com/yolodolo42/subwallet/internal/wallet"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the wallet address",
	RunE:  runAddress,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the free balance of the wallet account",
	RunE:  runBalance,
}

var transferCmd = &cobra.Command{
	Use:   "transfer <dest> <amount>",
	Short: "Transfer native balance, keeping the account alive",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransfer,
}

var signCmd = &cobra.Command{
	Use:   "sign <data>",
	Short: "Sign arbitrary data with the wallet key",
	Long: `Sign arbitrary data with the wallet key.

Data is taken as a hex string when prefixed with 0x, otherwise as UTF-8
text. The data is wrapped in the standard raw-signing envelope so the
signature can never double as a transaction signature.`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <extrinsic-hex>",
	Short: "Check whether an encoded extrinsic is signed",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runAddress(cmd *cobra.Command, args []string) error {
	// A local key derives its address offline; only the provider path needs
	// the network.
	if viper.GetString("provider") == "" {
		cfg, err := chainConfig()
		if err != nil {
			return err
		}
		phrase, err := seedPhrase()
		if err != nil {
			return err
		}
		h, err := wallet.NewEmbedded(wallet.EmbeddedOptions{
			Chain:     cfg,
			Algorithm: keyring.Algorithm(viper.GetString("scheme")),
			Words:     strings.Fields(phrase),
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.AddressStyle.Render(h.Address()))
		return nil
	}

	h, err := newHandle(cmd.Context())
	if err != nil {
		return err
	}
	defer h.Disconnect()
	fmt.Println(ui.AddressStyle.Render(h.Address()))
	return nil
}

func runBalance(cmd *cobra.Command, args []string) error {
	h, err := newHandle(cmd.Context())
	if err != nil {
		return err
	}
	defer h.Disconnect()

	free, err := h.GetBalance(cmd.Context())
	if err != nil {
		return err
	}

	cfg, err := chainConfig()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n",
		ui.LabelStyle.Render(h.Address()),
		ui.AmountStyle.Render(FormatAmount(free, cfg.TokenDecimals, cfg.TokenSymbol)))
	return nil
}

func runTransfer(cmd *cobra.Command, args []string) error {
	dest := args[0]

	cfg, err := chainConfig()
	if err != nil {
		return err
	}
	amount, err := ParseAmount(args[1], cfg.TokenDecimals)
	if err != nil {
		return err
	}

	h, err := newHandle(cmd.Context())
	if err != nil {
		return err
	}
	defer h.Disconnect()

	fmt.Printf("Transferring %s to %s...\n",
		ui.AmountStyle.Render(FormatAmount(amount, cfg.TokenDecimals, cfg.TokenSymbol)),
		ui.AddressStyle.Render(dest))

	rec, err := h.Transfer(cmd.Context(), dest, amount)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s included in block #%d (%s)\n",
		ui.SuccessStyle.Render(ui.SymbolCheck), rec.ExtrinsicHash, rec.Block.Number, rec.Block.Hash)
	return nil
}

func runSign(cmd *cobra.Command, args []string) error {
	data, err := decodeDataArg(args[0])
	if err != nil {
		return err
	}

	h, err := newHandle(cmd.Context())
	if err != nil {
		return err
	}
	defer h.Disconnect()

	sig, err := h.SignData(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Println(hexutil.Encode(sig))
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	ext, err := hexutil.Decode(args[0])
	if err != nil {
		return fmt.Errorf("decode extrinsic: %w", err)
	}

	if extrinsic.IsSigned(ext) {
		fmt.Println(ui.SuccessStyle.Render(ui.SymbolCheck + " signed"))
		return nil
	}
	fmt.Println(ui.WarningStyle.Render(ui.SymbolCross + " unsigned"))
	return nil
}

func decodeDataArg(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "0x") {
		data, err := hexutil.Decode(arg)
		if err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
		return data, nil
	}
	return []byte(arg), nil
}
