package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/present"
)

func newDocShowCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:               "show <id>",
		Short:             "Display a document",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: docIDCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			doc, err := app.Store.Docs.GetDoc(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if outputMode == "" {
				// pretty in a terminal, plain when piped
				if stdoutIsTerminal(cmd.OutOrStdout()) {
					outputMode = "pretty"
				} else {
					outputMode = "plain"
				}
			}
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			opts := present.Options{Mode: mode, Headers: true, WordWrap: app.Cfg.GetInt("render.word_wrap")}
			return renderDoc(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), doc, opts)
		},
	}
	cmd.Flags().StringVar(&outputMode, "output", "", "output mode: plain|pretty|json|ndjson (default: pretty on a tty)")
	return cmd
}
