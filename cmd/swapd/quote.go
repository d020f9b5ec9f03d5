package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"swapcore/internal/pricing"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against given reserves",
		RunE:  runQuote,
	}

	cmd.Flags().Uint64("amount-in", 0, "input amount")
	cmd.Flags().Uint64("reserve-in", 0, "input-side reserve")
	cmd.Flags().Uint64("reserve-out", 0, "output-side reserve")

	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	amountIn, _ := cmd.Flags().GetUint64("amount-in")
	reserveIn, _ := cmd.Flags().GetUint64("reserve-in")
	reserveOut, _ := cmd.Flags().GetUint64("reserve-out")

	out, err := pricing.Quote(amountIn, reserveIn, reserveOut)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "amount_out=%d fee=%d\n", out, pricing.FeeOnInput(amountIn))
	return nil
}
