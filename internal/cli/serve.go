package cli

import (
	"github.com/spf13/cobra"

	"github.com/mithrel/inkpad/internal/server"
	"github.com/mithrel/inkpad/internal/watch"
)

func newServeCmd() *cobra.Command {
	var listen string
	var watchFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor and live preview in a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if listen != "" {
				app.Cfg.Set("http_addr", listen)
			}

			srv := server.New(app.Cfg, app.Store, app.Renderer, app.Log)

			if watchFile != "" {
				srv.SetWatchFile(watchFile)
				hub := srv.Hub()
				go func() {
					err := watch.File(cmd.Context(), watchFile, func(content string) {
						res, err := app.Renderer.Render(content)
						if err != nil {
							app.Log.Printf("watch render: %v", err)
							return
						}
						hub.Broadcast(res)
					})
					if err != nil && cmd.Context().Err() == nil {
						app.Log.Printf("watch: %v", err)
					}
				}()
			}

			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides http_addr)")
	cmd.Flags().StringVarP(&watchFile, "watch", "w", "", "watch a markdown file and push previews to connected browsers")
	return cmd
}
