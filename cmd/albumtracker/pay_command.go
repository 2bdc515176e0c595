package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"albumtracker/internal/api"
)

func newPayCommand(ctx *commandContext) *cobra.Command {
	var amount int64
	var to string
	cmd := &cobra.Command{
		Use:   "pay [id]",
		Short: "Pay for an album by id, or transfer to its custody address with --to",
		Long: "Pay for an album as the --as account. Give an album id, or send the\n" +
			"value straight to a custody address with --to. Without --amount the\n" +
			"album's listed price is paid.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to = strings.TrimSpace(to)
			switch {
			case len(args) == 1 && to != "":
				return errors.New("give either an album id or --to, not both")
			case len(args) == 0 && to == "":
				return errors.New("an album id or --to address is required")
			}

			payer := ctx.actor()
			return ctx.withCatalog(cmd.Context(), func(c catalogAPI) error {
				var (
					album api.Album
					err   error
				)
				if to != "" {
					if amount == 0 {
						return errors.New("--amount is required with --to")
					}
					album, err = c.Transfer(cmd.Context(), payer, to, amount)
				} else {
					id, parseErr := parseAlbumID(args[0])
					if parseErr != nil {
						return parseErr
					}
					value := amount
					if value == 0 {
						listed, describeErr := c.Describe(cmd.Context(), id)
						if describeErr != nil {
							return describeErr
						}
						value = listed.Price
					}
					album, err = c.Pay(cmd.Context(), payer, id, value)
				}
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.AlbumResponse{Album: album})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Paid %d for album #%d %q from %s\n",
					album.PaidAmount, album.ID, album.Title, album.Buyer)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&amount, "amount", 0, "Amount to pay (defaults to the album price)")
	cmd.Flags().StringVar(&to, "to", "", "Custody address to transfer to")
	return cmd
}

func newBalanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the value held at an address (defaults to the acting account)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := ctx.actor()
			if len(args) == 1 {
				address = args[0]
			}
			return ctx.withCatalog(cmd.Context(), func(c catalogAPI) error {
				account, err := c.Balance(cmd.Context(), address)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, account)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", account.Address, account.Balance)
				return nil
			})
		},
	}
}
