package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"albumtracker/internal/api"
)

func newAlbumCommand(ctx *commandContext) *cobra.Command {
	albumCmd := &cobra.Command{
		Use:   "album",
		Short: "Create, inspect and deliver albums",
	}

	albumCmd.AddCommand(newAlbumCreateCommand(ctx))
	albumCmd.AddCommand(newAlbumShowCommand(ctx))
	albumCmd.AddCommand(newAlbumListCommand(ctx))
	albumCmd.AddCommand(newAlbumDeliverCommand(ctx))

	return albumCmd
}

func newAlbumCreateCommand(ctx *commandContext) *cobra.Command {
	var price int64
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "List a new album for sale (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd.Context(), func(c catalogAPI) error {
				album, err := c.Create(cmd.Context(), ctx.actor(), price, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.AlbumResponse{Album: album})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Listed album #%d %q for %d\n", album.ID, album.Title, album.Price)
				fmt.Fprintf(out, "Custody address: %s\n", album.CustodyAddress)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&price, "price", 0, "Album price")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newAlbumShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show album details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlbumID(args[0])
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd.Context(), func(c catalogAPI) error {
				album, err := c.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.AlbumResponse{Album: album})
				}
				printAlbumDetail(cmd.OutOrStdout(), album, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}
}

func newAlbumListCommand(ctx *commandContext) *cobra.Command {
	var states []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List albums, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd.Context(), func(c catalogAPI) error {
				albums, err := c.List(cmd.Context(), splitStates(states))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.AlbumListResponse{Albums: albums})
				}
				out := cmd.OutOrStdout()
				if len(albums) == 0 {
					fmt.Fprintln(out, "No albums")
					return nil
				}
				fmt.Fprint(out, renderAlbumTable(albums))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&states, "state", "s", nil, "Filter by state (listed, paid, delivered)")
	return cmd
}

func newAlbumDeliverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deliver <id>",
		Short: "Release a paid album's funds to the administrator (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAlbumID(args[0])
			if err != nil {
				return err
			}
			return ctx.withCatalog(cmd.Context(), func(c catalogAPI) error {
				album, err := c.Deliver(cmd.Context(), ctx.actor(), id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.AlbumResponse{Album: album})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Delivered album #%d %q; %d released from %s\n",
					album.ID, album.Title, album.PaidAmount, album.CustodyAddress)
				return nil
			})
		},
	}
}

func parseAlbumID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid album id %q", raw)
	}
	return id, nil
}

func splitStates(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
