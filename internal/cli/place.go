package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func placeCmd(opts *rootOptions) *cobra.Command {
	var storageName string

	c := &cobra.Command{
		Use:   "place <file>",
		Short: "Copy a finished dump into a storage and apply retention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			placed, report, err := a.svc.Place(cmd.Context(), storageName, args[0])
			if placed != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "placed %s\n", placed.Path())
			}
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	c.Flags().StringVarP(&storageName, "storage", "s", "", "storage name")
	_ = c.MarkFlagRequired("storage")
	return c
}
