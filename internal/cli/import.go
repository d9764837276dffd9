package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/editor"
	"github.com/mithrel/inkpad/pkg/api"
)

// newImportCmd loads documents from markdown files or a JSON export.
func newImportCmd() *cobra.Command {
	var jsonFile string
	var tags []string
	cmd := &cobra.Command{
		Use:   "import [file.md ...]",
		Short: "Import markdown files or a JSON export as documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()

			if jsonFile == "" && len(args) == 0 {
				return fmt.Errorf("nothing to import: pass markdown files or --file export.json")
			}

			count := 0
			if jsonFile != "" {
				data, err := os.ReadFile(jsonFile)
				if err != nil {
					return err
				}
				var docs []api.Document
				if err := json.Unmarshal(data, &docs); err != nil {
					return fmt.Errorf("parse %s: %w", jsonFile, err)
				}
				for _, d := range docs {
					if d.ID == "" {
						d.ID = api.NewID()
					}
					if d.CreatedAt.IsZero() {
						d.CreatedAt = time.Now().UTC()
					}
					if d.UpdatedAt.IsZero() {
						d.UpdatedAt = d.CreatedAt
					}
					if _, err := app.Store.Docs.CreateDoc(ctx, d); err != nil {
						return fmt.Errorf("import %s: %w", d.ID, err)
					}
					count++
				}
			}

			for _, path := range args {
				body, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				title := titleFromMarkdown(string(body))
				if title == "" {
					title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}
				now := time.Now().UTC()
				d := api.Document{
					ID:        api.NewID(),
					Title:     title,
					Body:      string(body),
					Tags:      tags,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if _, err := app.Store.Docs.CreateDoc(ctx, d); err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				count++
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d document(s)\n", count)
			return nil
		},
	}
	cmd.Flags().StringVarP(&jsonFile, "file", "f", "", "JSON export produced by `doc list --output json`")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "tags applied to imported markdown files")
	return cmd
}

// titleFromMarkdown takes the first ATX heading, else the first line.
func titleFromMarkdown(body string) string {
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "#") {
			return strings.TrimSpace(strings.TrimLeft(t, "#"))
		}
		return editor.FirstLine(t)
	}
	return ""
}
