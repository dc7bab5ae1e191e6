package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasgate/internal/db/migrations"
	"github.com/dmitrymomot/saasgate/pkg/logger"
	"github.com/dmitrymomot/saasgate/pkg/pg"
)

var errPGURLRequired = errors.New("PG_URL is required to run migrations")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !cfg.PG.Enabled() {
				return errPGURLRequired
			}

			log := newLogger(cfg).With(logger.Component("migrate"))
			pool, err := pg.Connect(cmd.Context(), cfg.PG)
			if err != nil {
				return err
			}
			defer pool.Close()

			return pg.Migrate(cmd.Context(), pool, cfg.PG, migrations.FS, log)
		},
	}
}
