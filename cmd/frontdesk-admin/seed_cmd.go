package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhank48/ultfpeb-sub004/internal/app"
	"github.com/zhank48/ultfpeb-sub004/internal/config"
	"github.com/zhank48/ultfpeb-sub004/internal/db"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

func newSeedDevCmd() *cobra.Command {
	var operator string

	cmd := &cobra.Command{
		Use:   "seed-dev",
		Short: "Insert a sample checked-in visitor (dev only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, logger, err := openBackend(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			if cfg.IsProd() {
				return fmt.Errorf("seed-dev refuses to run with FRONTDESK_ENV=prod")
			}

			if cfg.Store == config.StoreSQLite {
				return db.SeedDev(cmd.Context(), b.SQL, db.SeedDevOptions{Operator: operator})
			}

			svc := app.NewServices(b.Store, logger, nil)
			existing, err := svc.Visitors.Active(cmd.Context(), service.ActiveFilter{Limit: 1})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return nil
			}
			_, err = svc.Visitors.CheckIn(cmd.Context(), types.CheckInRequest{
				Name:        "Sample Visitor",
				Institution: "Dev",
				Purpose:     "Seed data",
				HostName:    "Front Desk",
				Unit:        "Lobby",
			}, types.CheckInPolicy{}, types.Actor{ID: operator, Role: types.RoleOperator})
			return err
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "dev-seed", "Operator recorded on the sample check-in")
	return cmd
}
