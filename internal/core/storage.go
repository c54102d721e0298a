package core

import (
	"fmt"
	"os"

	"recordcore/internal/infra/persistence/memory"
	"recordcore/internal/infra/persistence/postgres"
	"recordcore/internal/infra/persistence/sqlite"
	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset. The registry, when non-nil, drives
// schema DDL application on the SQL backends.
//
//	RECORDCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	RECORDCORE_SQLITE_PATH: path to sqlite file (default ./recordcore.db)
//	RECORDCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine, registry *schema.Registry) (record.PersistentStore, error) {
	driver := os.Getenv("RECORDCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("RECORDCORE_SQLITE_PATH"), engine, registry)
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("RECORDCORE_POSTGRES_DSN"), engine, registry)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
