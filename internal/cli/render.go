package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var hashOnly bool
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render markdown to sanitized HTML (stdin if no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)

			var src []byte
			var err error
			if len(args) == 1 {
				src, err = os.ReadFile(args[0])
			} else {
				src, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			res, err := app.Renderer.Render(string(src))
			if err != nil {
				return err
			}
			if hashOnly {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Hash)
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), res.HTML)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hashOnly, "hash", false, "print only the content hash")
	return cmd
}
