package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/util"
	"github.com/mithrel/inkpad/pkg/api"
)

func newDocLogCmd() *cobra.Command {
	var since, until string
	var id string
	var asJSON bool
	var pageSize int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the revision log",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			lo, hi, err := util.TimeRange(since, until)
			if err != nil {
				return err
			}
			if pageSize <= 0 {
				pageSize = app.Cfg.GetInt("export.page_size")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			cur := api.Cursor{}
			for {
				events, next, err := app.Store.Revisions.List(cmd.Context(), cur, pageSize)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					break
				}
				for _, ev := range events {
					if id != "" && ev.ID != id {
						continue
					}
					if !util.InRange(ev.Time, lo, hi) {
						continue
					}
					if asJSON {
						if err := enc.Encode(ev); err != nil {
							return err
						}
						continue
					}
					title := ""
					if ev.Doc != nil {
						title = ev.Doc.Title
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
						ev.Time.Local().Format("2006-01-02 15:04:05"), ev.Type, ev.ID, title)
				}
				if next.After.Equal(cur.After) {
					break
				}
				cur = next
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "only events for this document")
	cmd.Flags().StringVar(&since, "since", "", "lower time bound (2h, 3d, 2w, 1mo or absolute)")
	cmd.Flags().StringVar(&until, "until", "", "upper time bound")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit events as NDJSON")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "events fetched per page (0 uses config)")
	_ = cmd.RegisterFlagCompletionFunc("id", docIDCompletion)
	return cmd
}
