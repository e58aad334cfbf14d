package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"resilientrpc/internal/eth"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Offline address and quantity conversions",
		// no endpoints are needed, so skip client setup
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "eth2trx <address>",
			Short: "Convert an Ethereum address to its Tron form",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseAddress(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), eth.ToTronAddress(addr))
				return err
			},
		},
		&cobra.Command{
			Use:   "trx2eth <address>...",
			Short: "Convert Tron addresses to checksummed Ethereum addresses",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addrs, err := eth.FromTronAddresses(args)
				if err != nil {
					return err
				}
				for _, addr := range addrs {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), addr.Hex()); err != nil {
						return err
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "contract <from> <nonce>",
			Short: "Compute the address of a contract deployed by from at nonce",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := parseAddress(args[0])
				if err != nil {
					return err
				}
				nonce, err := eth.ParseQuantity(args[1])
				if err != nil {
					return err
				}
				if !nonce.IsUint64() {
					return fmt.Errorf("nonce %s out of range", args[1])
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), eth.ContractAddress(from, nonce.Uint64()).Hex())
				return err
			},
		},
		&cobra.Command{
			Use:   "time <hex-timestamp>",
			Short: "Render a hex unix timestamp as UTC",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := eth.FormatTimestamp(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
				return err
			},
		},
		&cobra.Command{
			Use:   "units <hex-amount> <decimals>",
			Short: "Scale a hex token amount by its decimals",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				decimals, err := strconv.ParseUint(args[1], 10, 8)
				if err != nil {
					return fmt.Errorf("invalid decimals %q: %w", args[1], err)
				}
				s, err := eth.FormatUnits(args[0], uint8(decimals))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
				return err
			},
		},
	)
	return cmd
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
