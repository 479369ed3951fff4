package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPageCommand(a *app) *cobra.Command {
	var showMarkup bool

	cmd := &cobra.Command{
		Use:   "page <number>",
		Args:  cobra.ExactArgs(1),
		Short: "Print one page of the data source as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid page number %q", args[0])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			view, err := a.loadPage(ctx, n)
			if err != nil {
				return err
			}
			if !showMarkup {
				view.Markup = ""
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}

	cmd.Flags().BoolVar(&showMarkup, "markup", false, "include the rendered navigation markup")
	return cmd
}
