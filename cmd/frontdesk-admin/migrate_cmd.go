package main

import (
	"github.com/spf13/cobra"

	"github.com/zhank48/ultfpeb-sub004/internal/config"
	"github.com/zhank48/ultfpeb-sub004/internal/db"
)

type migrateOutput struct {
	Store      string               `json:"store"`
	Migrations []db.MigrationStatus `json:"migrations,omitempty"`
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a database backend migrates it.
			cfg, b, _, err := openBackend(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			out := migrateOutput{Store: cfg.Store}
			switch cfg.Store {
			case config.StoreSQLite:
				if out.Migrations, err = db.Status(cmd.Context(), b.SQL); err != nil {
					return err
				}
			case config.StorePostgres:
				if err := b.PG.Migrate(cmd.Context()); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
