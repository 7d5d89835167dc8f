package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhank48/ultfpeb-sub004/internal/app"
)

var errAnomaliesFound = errors.New("anomalies found")

func newScanCmd() *cobra.Command {
	var failOnAnomaly bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the read-only consistency scan and print the report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, logger, err := openBackend(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			svc := app.NewServices(b.Store, logger, nil)
			rep, err := svc.Checker.Report(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if failOnAnomaly && rep.Total > 0 {
				return fmt.Errorf("%w: %d", errAnomaliesFound, rep.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failOnAnomaly, "fail-on-anomaly", false, "Exit non-zero when the scan reports anomalies")
	return cmd
}
