package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/csvstore"
	"github.com/nextgensultan/agentic-policybased-chatbot/agent/order/sqlstore"
)

func seedCmd() *cobra.Command {
	var (
		csvPath string
		driver  string
		dsn     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the orders CSV into the SQL orders backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadAppConfig()
			if err != nil {
				return err
			}
			if csvPath == "" {
				csvPath = cfg.OrdersCSV
			}
			if driver == "" {
				driver = cfg.OrdersBackend
			}
			if dsn == "" {
				dsn = cfg.OrdersDSN
			}
			if strings.EqualFold(driver, OrdersCSV) {
				return fmt.Errorf("seed needs a sql backend, got %q (use --driver postgres|sqlite)", driver)
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer f.Close()
			orders, err := csvstore.Read(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", csvPath, err)
			}

			repo, err := sqlstore.Open(ctx, driver, dsn)
			if err != nil {
				return err
			}
			defer repo.Close()

			inserted, err := repo.Seed(ctx, orders)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d orders\n", inserted, len(orders))
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "orders csv (default APP_ORDERS_CSV)")
	cmd.Flags().StringVar(&driver, "driver", "", "postgres or sqlite (default APP_ORDERS_BACKEND)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database dsn (default APP_ORDERS_DSN)")
	return cmd
}
