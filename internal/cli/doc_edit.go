package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/editor"
)

func newDocEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "edit <id>",
		Short:             "Edit a document in $EDITOR",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: docIDCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()

			doc, err := app.Store.Docs.GetDoc(ctx, args[0])
			if err != nil {
				return err
			}

			path, err := editor.PathForID(doc.ID)
			if err != nil {
				return err
			}
			initial := []byte(editor.ComposeContent(doc.Title, doc.Tags, doc.Body))
			out, changed, err := editor.OpenAt(path, initial)
			if err != nil {
				return err
			}
			_ = os.Remove(path)

			if !changed {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No edits; document unchanged.")
				return nil
			}

			title, tags, body := editor.ParseEditedDoc(string(out))
			if title == "" && strings.TrimSpace(body) == "" {
				if app.Cfg.GetBool("editor.delete_empty") {
					if err := app.Store.Docs.DeleteDoc(ctx, doc.ID); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (emptied in editor).\n", doc.ID)
					return nil
				}
				return fmt.Errorf("refusing to save empty document; delete it with `inkpad doc delete %s`", doc.ID)
			}
			if title == "" {
				title = editor.FirstLine(body)
			}

			ifVersion := doc.Version
			doc.Title = title
			doc.Tags = tags
			doc.Body = body
			doc.Version = ifVersion + 1
			doc.UpdatedAt = time.Now().UTC()
			updated, err := app.Store.Docs.UpdateDocCAS(ctx, doc, ifVersion)
			if err != nil {
				if errors.Is(err, db.ErrConflict) {
					return fmt.Errorf("document changed while editing; re-run edit")
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\n", updated.ID, updated.Title, updated.Version)
			return nil
		},
	}
	return cmd
}
