package cli

import (
	"fmt"
	"path"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/raoulx24/dumpkeeper/internal/dump"
	"github.com/raoulx24/dumpkeeper/internal/period"
)

var (
	rootStyle   = lipgloss.NewStyle().Bold(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func listCmd(opts *rootOptions) *cobra.Command {
	var storageName, by string

	c := &cobra.Command{
		Use:   "list",
		Short: "Show the dumps of a storage as a year/month/day tree",
		Long: "Show the dumps of a storage as a year/month/day tree. With --by the dumps\n" +
			"are counted per calendar unit instead (year, month, weekOfMonth, day, hour).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			target, err := a.resolveTarget(storageName)
			if err != nil {
				return err
			}

			artifacts, err := a.svc.ListArtifacts(cmd.Context(), target)
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no dumps\n", target)
				return nil
			}
			if by == "" {
				fmt.Fprintln(cmd.OutOrStdout(), renderTree(target, dump.Tree(artifacts)))
				return nil
			}
			groups, err := dump.Group(artifacts, by)
			if err != nil {
				return fmt.Errorf("--by: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderGroups(target, len(artifacts), groups))
			return nil
		},
	}

	c.Flags().StringVarP(&storageName, "storage", "s", "", "storage name (optional with a single storage)")
	c.Flags().StringVar(&by, "by", "", "count dumps per calendar unit instead of drawing the tree")
	return c
}

func renderGroups(title string, total int, groups []period.Group[*dump.Artifact]) string {
	t := tree.Root(rootStyle.Render(fmt.Sprintf("%s (%d)", title, total))).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(branchStyle)
	for _, g := range groups {
		newest := path.Base(g.Items[0].Path())
		t.Child(fmt.Sprintf("%s (%d) ", g.Key, len(g.Items)) + mutedStyle.Render("newest "+newest))
	}
	return t.String()
}

func renderTree(title string, root *period.Node[*dump.Artifact]) string {
	t := tree.Root(rootStyle.Render(fmt.Sprintf("%s (%d)", title, root.Leaves()))).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(branchStyle)
	for _, c := range root.Children {
		t.Child(subtree(c))
	}
	return t.String()
}

func subtree(n *period.Node[*dump.Artifact]) any {
	if n.IsLeaf() {
		return leafLabel(n.Item)
	}
	t := tree.Root(fmt.Sprintf("%s (%d)", n.Label, n.Leaves()))
	for _, c := range n.Children {
		t.Child(subtree(c))
	}
	return t
}

func leafLabel(a *dump.Artifact) string {
	name := path.Base(a.Path())
	switch a.Source() {
	case dump.SourceBackend:
		return name + mutedStyle.Render(" (mtime)")
	case dump.SourceUnknown:
		return name + mutedStyle.Render(" (no timestamp)")
	default:
		return name
	}
}
