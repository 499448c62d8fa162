package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/raoulx24/dumpkeeper/internal/retention"
)

func cleanupCmd(opts *rootOptions) *cobra.Command {
	var (
		storageName string
		dryRun      bool
		mode        string
	)

	c := &cobra.Command{
		Use:   "cleanup",
		Short: "Apply retention to one storage or to all of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			targets := a.svc.Targets()
			if storageName != "" {
				targets = []string{storageName}
			}

			p := a.svc.Policy()
			p.DryRun = dryRun
			if mode != "" {
				p.Mode = mode
			}

			for _, t := range targets {
				report, err := a.svc.ApplyRetention(cmd.Context(), t, p)
				if err != nil {
					if isConfigError(err) {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", t, err)
					continue
				}
				printReport(cmd.OutOrStdout(), report)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&storageName, "storage", "s", "", "storage name (all storages when omitted)")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")
	c.Flags().StringVar(&mode, "mode", "", "override retention.mode (tiered or capped)")
	return c
}

func printReport(w io.Writer, r *retention.Report) {
	verb := "deleted"
	if r.DryRun {
		verb = "would delete"
	}
	fmt.Fprintf(w, "%s: kept %d, %s %d, failed %d, removed %d dirs (%s, run %s)\n",
		r.Target, len(r.Kept), verb, len(r.Deleted), len(r.Errors), len(r.RemovedDirs), r.Mode, r.RunID)
	for _, p := range r.Deleted {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	for _, p := range r.Unresolved {
		fmt.Fprintf(w, "  ? %s (no timestamp, kept)\n", p)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
	for _, e := range r.DirErrors {
		fmt.Fprintf(w, "  ! %s\n", e)
	}
}
