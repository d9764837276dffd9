package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDocDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "delete <id>...",
		Short:             "Delete documents",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: docIDCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			for _, id := range args {
				if err := app.Store.Docs.DeleteDoc(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}
	return cmd
}
