// cmd/api/import.go

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propmap/internal/adapter/source"
	"propmap/internal/adapter/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <name> <file>",
	Short: "Store a GeoJSON dataset in Postgres",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, path := args[0], args[1]

		c, body, err := source.ReadFile(path)
		if err != nil {
			return err
		}

		db, err := initDatabase(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		store := storage.NewDatasetStore(db)
		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		if err := store.Save(cmd.Context(), name, body); err != nil {
			return err
		}

		zap.L().Info("dataset imported", zap.String("dataset", name), zap.Int("features", c.Len()))
		return nil
	},
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets stored in Postgres",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := initDatabase(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		infos, err := storage.NewDatasetStore(db).List(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFEATURES\tUPDATED")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Features, info.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(datasetsCmd)
}
