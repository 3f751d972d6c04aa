package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/meigma/sarc"
)

var hashCmd = &cobra.Command{
	Use:   "hash NAME...",
	Short: "Print the table hash of each name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("multiplier")
		mult, err := parseMultiplier(raw)
		if err != nil {
			return err
		}
		for _, name := range args {
			fmt.Fprintf(cmd.OutOrStdout(), "%08X  %s\n", sarc.Hash(name, mult), name)
		}
		return nil
	},
}

func init() {
	hashCmd.Flags().String("multiplier", "0x65", "Hash multiplier (decimal or 0x-prefixed hex)")

	rootCmd.AddCommand(hashCmd)
}

func parseMultiplier(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid multiplier %q: %w", s, err)
	}
	return uint32(v), nil
}
