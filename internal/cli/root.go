package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/inkpad/internal/config"
	"github.com/mithrel/inkpad/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// Execute is the entrypoint: it builds the root cobra.Command
// and calls its Execute() method to run the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "inkpad",
		Short:         "inkpad — markdown editor with a live browser preview",
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load config with Viper.
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			if err := config.CheckConfigValidity(v); err != nil {
				return err
			}
			// Wire up the app and stash it in context for subcommands.
			app, err := wire.BuildApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), appKey, app)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if v := cmd.Context().Value(appKey); v != nil {
				return v.(*wire.App).Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDocCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newChurnCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}
