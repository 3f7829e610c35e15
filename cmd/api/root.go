// cmd/api/root.go

package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propmap/internal/config"
)

var (
	cfg      config.Config
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "propmap",
	Short: "Temporal proportional-symbol map service",
	Long:  "Serves time-series GeoJSON datasets as proportional circle symbols with a sequence control and legend. Without a subcommand it runs serve.",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFiles(envFiles...); err != nil {
			return err
		}

		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "env files to preload")
}

func main() {
	err := rootCmd.Execute()
	_ = zap.L().Sync()
	if err != nil {
		os.Exit(1)
	}
}
