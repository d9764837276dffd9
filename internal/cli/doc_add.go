package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/editor"
	"github.com/mithrel/inkpad/pkg/api"
)

// newDocAddCmd registers `doc add`, but doesn't own wiring; parent calls it.
func newDocAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new document",
		Args:  cobra.ArbitraryArgs,
		RunE:  runDocAdd, // shared with parent
	}
	cmd.Flags().StringSliceP("tags", "t", nil, "tags for one-liner add (comma-separated or repeated)")
	return cmd
}

// runDocAdd is the default behavior used by both parent RunE and `doc add`.
func runDocAdd(cmd *cobra.Command, args []string) error {
	app := getApp(cmd)
	ctx := cmd.Context()

	// One-liner flow
	if len(args) > 0 {
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("empty title")
		}
		tags, _ := cmd.Flags().GetStringSlice("tags")
		if len(tags) == 0 {
			tags = app.Cfg.GetStringSlice("default_tags")
		}
		now := time.Now().UTC()
		doc, err := app.Store.Docs.CreateDoc(ctx, api.Document{
			ID:        api.NewID(),
			Title:     title,
			Tags:      tags,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", doc.ID, doc.Title)
		return nil
	}

	// Editor flow
	id := api.NewID()
	path, err := editor.PathForID(id)
	if err != nil {
		return err
	}
	initial := []byte(editor.ComposeContent("", app.Cfg.GetStringSlice("default_tags"), ""))
	out, changed, err := editor.OpenAt(path, initial)
	if err != nil {
		return err
	}
	_ = os.Remove(path)

	if !changed {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No edits; nothing created.")
		return nil
	}

	title, tags, body := editor.ParseEditedDoc(string(out))
	if title == "" {
		title = editor.FirstLine(body)
	}
	if title == "" && strings.TrimSpace(body) == "" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted: empty content.")
		return nil
	}
	if len(tags) == 0 {
		tags = append(tags, app.Cfg.GetStringSlice("default_tags")...)
	}

	now := time.Now().UTC()
	doc, err := app.Store.Docs.CreateDoc(ctx, api.Document{
		ID:        id,
		Title:     title,
		Body:      body,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", doc.ID, doc.Title)
	return nil
}
