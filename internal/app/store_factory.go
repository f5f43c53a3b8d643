package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/dagbok/internal/store"
	"github.com/shrimpsizemoose/dagbok/internal/store/memory"
	"github.com/shrimpsizemoose/dagbok/internal/store/postgres"
	"github.com/shrimpsizemoose/dagbok/internal/store/sqlite"
)

func DatabaseTypeOf(dsn string) store.DatabaseType {
	switch {
	case strings.HasPrefix(dsn, "postgres"):
		return store.DBTypePostgres
	case strings.HasPrefix(dsn, "memory://"):
		return store.DBTypeMemory
	default:
		return store.DBTypeSQLite
	}
}

func NewStore(dsn, migrationsDir string) (store.JournalStore, error) {
	dbType := DatabaseTypeOf(dsn)

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(&store.DBConfig{
			DSN:           dsn,
			Type:          dbType,
			MigrationsDir: migrationsDir,
		})
	case store.DBTypeMemory:
		return memory.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
