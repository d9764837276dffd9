package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/churn"
)

func newChurnCmd() *cobra.Command {
	var scoresPath, contribsPath string
	var row int
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "churn",
		Short: "Render a churn-risk report from precomputed model output",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			p, err := churn.Load(scoresPath, contribsPath)
			if err != nil {
				return err
			}
			var rowPtr *int
			if cmd.Flags().Changed("row") {
				rowPtr = &row
			}

			md, err := churn.Report(p, rowPtr)
			if err != nil {
				return err
			}

			if asHTML {
				res, err := app.Renderer.Render(md)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), res.HTML)
				return nil
			}

			if !stdoutIsTerminal(cmd.OutOrStdout()) {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			wrap := app.Cfg.GetInt("render.word_wrap")
			if wrap <= 0 {
				wrap = 80
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				r, err := glamour.NewTermRenderer(
					glamour.WithStandardStyle("dracula"),
					glamour.WithWordWrap(wrap),
				)
				if err != nil {
					return err
				}
				out, err := r.Render(md)
				if err != nil {
					return err
				}
				_, err = io.WriteString(w, out)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&scoresPath, "scores", "", "CSV of customer features plus churn_probability column")
	cmd.Flags().StringVar(&contribsPath, "contribs", "", "CSV of per-feature SHAP contributions")
	cmd.Flags().IntVar(&row, "row", 0, "customer row to explain (default: dataset mean)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "emit sanitized HTML instead of terminal output")
	_ = cmd.MarkFlagRequired("scores")
	_ = cmd.MarkFlagRequired("contribs")
	return cmd
}
