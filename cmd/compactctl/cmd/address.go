package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"compactvault/utils"
	compacttypes "compactvault/x/compact/types"
)

// AddressCmd prints both encodings of an account address.
func AddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address [address]",
		Short: "Convert an address between hex and bech32",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			addr, ok := utils.ParseAddress(args[0])
			if !ok {
				return fmt.Errorf("invalid address %q", args[0])
			}
			bech32Addr, err := utils.EthAddressToBech32(addr, cfg.Bech32Prefix)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"hex":    addr.Hex(),
				"bech32": bech32Addr,
			})
		},
	}
}

// AllocatorDetails describes the id an allocator address registers under.
type AllocatorDetails struct {
	Allocator   string `json:"allocator"`
	AllocatorID string `json:"allocator_id"`
	CompactFlag uint8  `json:"compact_flag"`
}

// DescribeAllocator derives the allocator id of addr.
func DescribeAllocator(addr common.Address, bech32Prefix string) AllocatorDetails {
	id := compacttypes.AllocatorIDFor(addr)
	return AllocatorDetails{
		Allocator:   utils.FormatDual(addr, bech32Prefix),
		AllocatorID: id.String(),
		CompactFlag: id[0],
	}
}

// AllocatorIDCmd derives an allocator id from its address.
func AllocatorIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocator-id [address]",
		Short: "Derive the allocator id an address registers under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			addr, ok := utils.ParseAddress(args[0])
			if !ok {
				return fmt.Errorf("invalid address %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), DescribeAllocator(addr, cfg.Bech32Prefix))
		},
	}
}
