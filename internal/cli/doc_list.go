package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/present"
)

func newDocListCmd() *cobra.Command {
	var tagsAny, tagsAll, outputMode string
	var noHeaders bool
	var pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			if pageSize <= 0 {
				pageSize = app.Cfg.GetInt("export.page_size")
			}
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			opts := present.Options{
				Mode:       mode,
				JSONIndent: false, // pretty-print via external tools like jq
				Headers:    !noHeaders,
			}

			docs, err := app.Store.Docs.ListDocs(cmd.Context(), db.Filter{
				Any: splitCSV(tagsAny),
				All: splitCSV(tagsAll),
			})
			if err != nil {
				return err
			}

			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				writer := present.NewStreamWriter(w, opts)
				for off := 0; off < len(docs); off += pageSize {
					end := off + pageSize
					if end > len(docs) {
						end = len(docs)
					}
					if err := writer.WriteDocs(docs[off:end]); err != nil {
						return err
					}
				}
				return writer.Close()
			})
		},
	}
	cmd.Flags().StringVar(&tagsAny, "tags-any", "", "match documents with at least one of these tags (comma-separated)")
	cmd.Flags().StringVar(&tagsAll, "tags-all", "", "match documents with every one of these tags (comma-separated)")
	cmd.Flags().StringVar(&outputMode, "output", "plain", "output mode: plain|pretty|json|ndjson")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size for export paging (0 uses config)")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"plain", "pretty", "json", "ndjson"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
