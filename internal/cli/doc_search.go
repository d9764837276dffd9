package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/present"
)

func newDocSearchCmd() *cobra.Command {
	var tagsAny, tagsAll, outputMode string
	var noHeaders bool
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over title, body and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			opts := present.Options{Mode: mode, Headers: !noHeaders}

			docs, err := app.Store.Docs.SearchDocs(cmd.Context(), db.Filter{
				Query: strings.Join(args, " "),
				Any:   splitCSV(tagsAny),
				All:   splitCSV(tagsAll),
				Limit: limit,
			})
			if err != nil {
				return err
			}
			return renderDocs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), docs, opts)
		},
	}
	cmd.Flags().StringVar(&tagsAny, "tags-any", "", "restrict to documents with at least one of these tags")
	cmd.Flags().StringVar(&tagsAll, "tags-all", "", "restrict to documents with every one of these tags")
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|pretty|json|ndjson")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum results")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain)")
	return cmd
}
