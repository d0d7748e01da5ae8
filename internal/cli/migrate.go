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

func NewMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return errors.New("migrate needs database.driver: postgres")
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
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
