package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/shelfkeeper/library-store-go/librarystore/postgresengine"
	"github.com/shelfkeeper/library-store-go/testutil/postgresengine/config"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Schema statements for the four tables the store operates on. Kept here so
// a fresh test database can be bootstrapped from the test suite itself.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS author (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name text NOT NULL,
		country text NOT NULL,
		birth_date text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS book (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name text NOT NULL,
		year integer NOT NULL,
		category text NOT NULL,
		status text NOT NULL DEFAULT 'Available',
		author text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS member (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		nation_id text NOT NULL,
		name text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rental_history (
		nation_id text NOT NULL,
		book_name text NOT NULL,
		due_date text NOT NULL
	)`,
}

// Wrapper interface to abstract over different engine types.
type Wrapper interface {
	GetLibraryStore() *postgresengine.LibraryStore
	Exec(t testing.TB, statement string)
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgresengine.LibraryStore
}

func (w *PGXPoolWrapper) GetLibraryStore() *postgresengine.LibraryStore {
	return w.store
}

func (w *PGXPoolWrapper) Exec(t testing.TB, statement string) {
	_, err := w.pool.Exec(context.Background(), statement)
	assert.NoError(t, err, "error executing statement in test setup")
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store *postgresengine.LibraryStore
}

func (w *SQLDBWrapper) GetLibraryStore() *postgresengine.LibraryStore {
	return w.store
}

func (w *SQLDBWrapper) Exec(t testing.TB, statement string) {
	_, err := w.db.Exec(statement)
	assert.NoError(t, err, "error executing statement in test setup")
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store *postgresengine.LibraryStore
}

func (w *SQLXWrapper) GetLibraryStore() *postgresengine.LibraryStore {
	return w.store
}

func (w *SQLXWrapper) Exec(t testing.TB, statement string) {
	_, err := w.db.Exec(statement)
	assert.NoError(t, err, "error executing statement in test setup")
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the
// ADAPTER_TYPE environment variable, passing the options to the store.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := postgresengine.NewLibraryStoreFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating library store")

		return &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBConfig()

		store, err := postgresengine.NewLibraryStoreFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating library store")

		return &SQLDBWrapper{db: db, store: store}

	case typeSQLXDB:
		db := config.PostgresSQLXConfig()

		store, err := postgresengine.NewLibraryStoreFromSQLX(db, options...)
		assert.NoError(t, err, "error creating library store")

		return &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// TryCreateStoreWithTableNames tries to create a library store with the given
// table names and returns the error, for testing option validation.
func TryCreateStoreWithTableNames(t testing.TB, tables postgresengine.TableNames) error {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	options := []postgresengine.Option{postgresengine.WithTableNames(tables)}

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")
		defer connPool.Close()

		_, err = postgresengine.NewLibraryStoreFromPGXPool(connPool, options...)

		return err

	case typeSQLDB:
		db := config.PostgresSQLDBConfig()
		defer func(db *sql.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewLibraryStoreFromSQLDB(db, options...)

		return err

	case typeSQLXDB:
		db := config.PostgresSQLXConfig()
		defer func(db *sqlx.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := postgresengine.NewLibraryStoreFromSQLX(db, options...)

		return err

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// CreateSchema creates the four tables if they do not exist yet.
func CreateSchema(t testing.TB, wrapper Wrapper) {
	for _, statement := range schemaStatements {
		wrapper.Exec(t, statement)
	}
}

// CleanUp truncates all four tables for the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	wrapper.Exec(t, "TRUNCATE TABLE author, book, member, rental_history RESTART IDENTITY")
}
