// Package migration applies the versioned SQLite schema of the culture center.
//
// Migration files are embedded from the migrations directory and follow the
// naming convention {version}_{description}.sql (e.g. "001_initial_schema.sql").
// Each file runs inside its own transaction and is recorded in the
// schema_migrations table so it is never applied twice.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(migration.Files), migration.NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
