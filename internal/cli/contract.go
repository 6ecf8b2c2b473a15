package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/yolodolo42/subwallet/internal/chain"
	"github.com/yolodolo42/subwallet/internal/contract"
	"github.com/yolodolo42/subwallet/internal/ui"
	"github.com/yolodolo42/subwallet/internal/wallet"
)

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Query and invoke deployed contracts",
}

var contractInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the callable messages of a contract",
	RunE:  runContractInspect,
}

var contractQueryCmd = &cobra.Command{
	Use:   "query <method> [args-hex]",
	Short: "Dry-run a contract call against current state",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runContractQuery,
}

var contractInvokeCmd = &cobra.Command{
	Use:   "invoke <method> [args-hex]",
	Short: "Submit a state-changing contract call",
	Long: `Submit a state-changing contract call.

The call is dry-run first to estimate its weight; the estimate plus the
configured margin becomes the submitted gas limit. A dry-run that fails in
contract logic aborts before anything is signed, so no fee is paid and no
nonce is consumed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runContractInvoke,
}

func init() {
	rootCmd.AddCommand(contractCmd)
	contractCmd.AddCommand(contractInspectCmd)
	contractCmd.AddCommand(contractQueryCmd)
	contractCmd.AddCommand(contractInvokeCmd)

	contractCmd.PersistentFlags().String("metadata", "", "path to the contract metadata JSON")
	contractCmd.PersistentFlags().String("address", "", "deployed contract address")
	_ = contractCmd.MarkPersistentFlagRequired("metadata")

	contractQueryCmd.Flags().String("value", "0", "native balance to send with the call, in token units")
	contractInvokeCmd.Flags().String("value", "0", "native balance to send with the call, in token units")
	contractInvokeCmd.Flags().Uint64("gas-margin-pct", 10, "margin added to the estimated weight before submission")
}

func loadMetadata(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("metadata")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return raw, nil
}

func contractHandle(cmd *cobra.Command) (*wallet.Handle, error) {
	address, _ := cmd.Flags().GetString("address")
	if address == "" {
		return nil, fmt.Errorf("--address is required")
	}

	raw, err := loadMetadata(cmd)
	if err != nil {
		return nil, err
	}

	h, err := newHandle(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := h.LoadContract("target", raw, address); err != nil {
		h.Disconnect()
		return nil, err
	}
	return h, nil
}

func callOptions(cmd *cobra.Command) (contract.CallOptions, error) {
	cfg, err := chainConfig()
	if err != nil {
		return contract.CallOptions{}, err
	}
	raw, _ := cmd.Flags().GetString("value")
	value, err := ParseAmount(raw, cfg.TokenDecimals)
	if err != nil {
		return contract.CallOptions{}, err
	}
	return contract.CallOptions{Value: value}, nil
}

func runContractInspect(cmd *cobra.Command, args []string) error {
	raw, err := loadMetadata(cmd)
	if err != nil {
		return err
	}
	meta, err := contract.ParseMetadata(raw)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", ui.AddressStyle.Render(meta.Name), ui.LabelStyle.Render(meta.Version))
	for _, label := range meta.Messages() {
		msg, err := meta.Message(label)
		if err != nil {
			return err
		}
		kind := "read-only"
		if msg.Mutates {
			kind = "mutates"
		}
		fmt.Printf("  %s %s %s\n",
			ui.SelectorItemStyle.Render(label),
			hexutil.Encode(msg.Selector),
			ui.LabelStyle.Render(kind))
	}
	return nil
}

func runContractQuery(cmd *cobra.Command, args []string) error {
	method := args[0]
	callArgs, err := methodArgs(args)
	if err != nil {
		return err
	}

	h, err := contractHandle(cmd)
	if err != nil {
		return err
	}
	defer h.Disconnect()

	opts, err := callOptions(cmd)
	if err != nil {
		return err
	}

	out, err := h.DryRun(cmd.Context(), "target", method, callArgs, opts)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return fmt.Errorf("%s %w", ui.ErrorStyle.Render(ui.SymbolCross), out.Err)
	}
	if out.Reverted() {
		return fmt.Errorf("%s %w", ui.ErrorStyle.Render(ui.SymbolCross), &contract.RevertError{Data: out.Data})
	}

	fmt.Println(hexutil.Encode(out.Data))
	fmt.Printf("%s refTime=%d proofSize=%d\n",
		ui.LabelStyle.Render("weight:"), out.GasRequired.RefTime, out.GasRequired.ProofSize)
	return nil
}

func runContractInvoke(cmd *cobra.Command, args []string) error {
	method := args[0]
	callArgs, err := methodArgs(args)
	if err != nil {
		return err
	}

	h, err := contractHandle(cmd)
	if err != nil {
		return err
	}
	defer h.Disconnect()

	opts, err := callOptions(cmd)
	if err != nil {
		return err
	}

	// Estimate first. A call that already fails against current state is
	// not worth a fee.
	out, err := h.DryRun(cmd.Context(), "target", method, callArgs, opts)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return fmt.Errorf("dry-run failed, nothing submitted: %w", out.Err)
	}
	if out.Reverted() {
		return fmt.Errorf("dry-run reverted, nothing submitted: %w", &contract.RevertError{Data: out.Data})
	}

	marginPct, _ := cmd.Flags().GetUint64("gas-margin-pct")
	gas := weightWithMargin(out.GasRequired, marginPct)

	fmt.Printf("Invoking %s with refTime=%d proofSize=%d...\n", method, gas.RefTime, gas.ProofSize)

	rec, err := h.Invoke(cmd.Context(), "target", method, callArgs, gas, opts)
	if err != nil {
		var dispatch *contract.DispatchError
		if errors.As(err, &dispatch) {
			return fmt.Errorf("%s %w", ui.ErrorStyle.Render(ui.SymbolCross), err)
		}
		return err
	}

	fmt.Printf("%s %s included in block #%d (%s)\n",
		ui.SuccessStyle.Render(ui.SymbolCheck), rec.ExtrinsicHash, rec.Block.Number, rec.Block.Hash)
	return nil
}

func methodArgs(args []string) ([]byte, error) {
	if len(args) < 2 {
		return nil, nil
	}
	data, err := hexutil.Decode(args[1])
	if err != nil {
		return nil, fmt.Errorf("decode call args: %w", err)
	}
	return data, nil
}

// weightWithMargin scales the estimated weight up so minor state drift
// between dry-run and inclusion does not starve the call.
func weightWithMargin(w chain.Weight, pct uint64) chain.Weight {
	return chain.Weight{
		RefTime:   w.RefTime + w.RefTime*pct/100,
		ProofSize: w.ProofSize + w.ProofSize*pct/100,
	}
}
