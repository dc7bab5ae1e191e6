// Package pg wires PostgreSQL into saasgate: a pgx pool with connect retries,
// goose migrations applied from an embedded filesystem, and a readiness probe.
//
// Postgres is optional. When Config.ConnectionString is empty, Connect returns
// ErrEmptyConnectionString and callers keep the default in-process store.
//
//	pool, err := pg.Connect(ctx, cfg.PG)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg.PG, migrations.FS, log); err != nil {
//		return err
//	}
package pg
