package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var since uint64
	var limit int
	var follow bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print recorded album state changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			return ctx.withCatalog(runCtx, func(c catalogAPI) error {
				cursor := since
				printed := 0
				for {
					page, err := c.Events(runCtx, cursor, limit, follow)
					if err != nil {
						if follow && (errors.Is(err, context.Canceled) || runCtx.Err() != nil) {
							return nil
						}
						return err
					}
					for _, change := range page.Events {
						if ctx.jsonOutput() {
							if err := writeJSONLine(cmd, change); err != nil {
								return err
							}
							continue
						}
						fmt.Fprintln(cmd.OutOrStdout(), formatChange(change, colorize))
					}
					printed += len(page.Events)
					advanced := page.Next > cursor
					if advanced {
						cursor = page.Next
					}
					if !follow && (limit > 0 || len(page.Events) == 0 || !advanced) {
						if printed == 0 && !ctx.jsonOutput() {
							fmt.Fprintln(cmd.OutOrStdout(), "No events")
						}
						return nil
					}
					if runCtx.Err() != nil {
						return nil
					}
				}
			})
		},
	}
	cmd.Flags().Uint64Var(&since, "since", 0, "Only show changes after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum changes to print, or per page with --follow (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new changes")
	return cmd
}
