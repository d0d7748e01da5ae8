package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tablebot/internal/bootstrap"
	"github.com/Domenick1991/tablebot/internal/repository"
	"github.com/spf13/cobra"
)

func NewSeedCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo table catalog and menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return errors.New("seed needs database.driver: postgres; the memory driver is seeded on start")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			pool, err := bootstrap.OpenPostgres(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(ctx, pool); err != nil {
				return err
			}
			tables := repository.DemoTables()
			if err := repository.Seed(ctx, repository.NewTableRepository(pool), tables); err != nil {
				return err
			}
			menu := repository.DemoMenu()
			if err := repository.SeedMenu(ctx, repository.NewMenuRepository(pool), menu); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tables and %d menu items\n", len(tables), len(menu))
			return nil
		},
	}
}
