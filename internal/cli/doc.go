package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/util"
)

// newDocCmd defines the parent "doc" command.
// Running "inkpad doc" without subcommands adds a document.
func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc [title]",
		Short: "Work with documents (default: add one-liner)",
		Args:  cobra.ArbitraryArgs,
		RunE:  runDocAdd, // shared with `doc add`
	}
	cmd.Flags().StringSliceP("tags", "t", nil, "tags for one-liner add (comma-separated or repeated)")

	cmd.AddCommand(newDocAddCmd())
	cmd.AddCommand(newDocListCmd())
	cmd.AddCommand(newDocShowCmd())
	cmd.AddCommand(newDocEditCmd())
	cmd.AddCommand(newDocDeleteCmd())
	cmd.AddCommand(newDocSearchCmd())
	cmd.AddCommand(newDocLogCmd())
	return cmd
}

// splitCSV splits a comma-separated list into trimmed non-empty strings.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// docIDCompletion fuzzy-completes document IDs against stored "id\ttitle" pairs.
func docIDCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	app := getApp(cmd)
	pairs, err := app.Store.Docs.Titles(cmd.Context(), 500)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	matched := util.ScoreCompletions(toComplete, pairs, 20)
	out := make([]string, 0, len(matched))
	for _, m := range matched {
		id, title, _ := strings.Cut(m, "\t")
		out = append(out, id+"\t"+title)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
