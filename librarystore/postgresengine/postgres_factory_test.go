package postgresengine_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/assert"

	"github.com/shelfkeeper/library-store-go/librarystore"
	"github.com/shelfkeeper/library-store-go/librarystore/postgresengine"
	"github.com/shelfkeeper/library-store-go/testutil/postgresengine/config"
	. "github.com/shelfkeeper/library-store-go/testutil/postgresengine/helper"                 //nolint:revive
	. "github.com/shelfkeeper/library-store-go/testutil/postgresengine/helper/postgreswrapper" //nolint:revive
)

func Test_FactoryFunctions_ShouldPanic_WithUnsupportedAdapterType(t *testing.T) {
	// Save the original env var
	originalAdapterType := os.Getenv("ADAPTER_TYPE")
	defer func() {
		if originalAdapterType == "" {
			err := os.Unsetenv("ADAPTER_TYPE")
			assert.NoError(t, err)
		} else {
			err := os.Setenv("ADAPTER_TYPE", originalAdapterType)
			assert.NoError(t, err)
		}
	}()

	// Set an unsupported adapter type
	err := os.Setenv("ADAPTER_TYPE", "unsupported")
	assert.NoError(t, err)

	assert.Panics(t, func() {
		createErr := TryCreateStoreWithTableNames(t, postgresengine.TableNames{
			Author:        "author",
			Book:          "book",
			Member:        "member",
			RentalHistory: "rental_history",
		})
		assert.NoError(t, createErr)
	})
}

func Test_FactoryFunctions_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (*postgresengine.LibraryStore, error)
	}{
		{
			name: "NewLibraryStoreFromPGXPool with nil",
			factoryFunc: func() (*postgresengine.LibraryStore, error) {
				return postgresengine.NewLibraryStoreFromPGXPool(nil)
			},
		},
		{
			name: "NewLibraryStoreFromSQLDB with nil",
			factoryFunc: func() (*postgresengine.LibraryStore, error) {
				return postgresengine.NewLibraryStoreFromSQLDB(nil)
			},
		},
		{
			name: "NewLibraryStoreFromSQLX with nil",
			factoryFunc: func() (*postgresengine.LibraryStore, error) {
				return postgresengine.NewLibraryStoreFromSQLX(nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.factoryFunc()

			// assert
			assert.ErrorIs(t, err, librarystore.ErrNilDatabaseConnection)
		})
	}
}

func Test_FactoryFunctions_ShouldFail_WithEmptyTableName(t *testing.T) {
	emptyBookTable := postgresengine.TableNames{
		Author:        "author",
		Book:          "",
		Member:        "member",
		RentalHistory: "rental_history",
	}

	testCases := []struct {
		name        string
		factoryFunc func(t *testing.T) (*postgresengine.LibraryStore, error)
	}{
		{
			name: "NewLibraryStoreFromPGXPool with empty table name",
			factoryFunc: func(_ *testing.T) (*postgresengine.LibraryStore, error) {
				connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
				assert.NoError(t, err, "error connecting to DB pool in test setup")
				defer connPool.Close()

				return postgresengine.NewLibraryStoreFromPGXPool(connPool, postgresengine.WithTableNames(emptyBookTable))
			},
		},
		{
			name: "NewLibraryStoreFromSQLDB with empty table name",
			factoryFunc: func(_ *testing.T) (*postgresengine.LibraryStore, error) {
				db := config.PostgresSQLDBConfig()
				defer func() { _ = db.Close() }()

				return postgresengine.NewLibraryStoreFromSQLDB(db, postgresengine.WithTableNames(emptyBookTable))
			},
		},
		{
			name: "NewLibraryStoreFromSQLX with empty table name",
			factoryFunc: func(_ *testing.T) (*postgresengine.LibraryStore, error) {
				db := config.PostgresSQLXConfig()
				defer func() { _ = db.Close() }()

				return postgresengine.NewLibraryStoreFromSQLX(db, postgresengine.WithTableNames(emptyBookTable))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.factoryFunc(t)

			// assert
			assert.ErrorIs(t, err, librarystore.ErrEmptyTableNameSupplied)
		})
	}
}

func Test_FactoryFunctions_LibraryStore_WithTableNames_ShouldWorkCorrectly(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	customTables := postgresengine.TableNames{
		Author:        "author_archive",
		Book:          "book",
		Member:        "member",
		RentalHistory: "rental_history",
	}

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithTableNames(customTables))
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)
	wrapper.Exec(t, `CREATE TABLE IF NOT EXISTS author_archive (
		id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name text NOT NULL,
		country text NOT NULL,
		birth_date text NOT NULL
	)`)

	// arrange
	CleanUp(t, wrapper)
	wrapper.Exec(t, "TRUNCATE TABLE author_archive")
	GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("George Orwell"))

	// act
	authors, err := store.QueryAuthors(ctxWithTimeout, librarystore.AuthorQuery{})

	// assert
	assert.NoError(t, err, "error in querying authors from the custom table")
	assert.Len(t, authors, 1)
	assert.Equal(t, "George Orwell", authors[0].Name)
}

func Test_FactoryFunctions_LibraryStore_WithTableNames_ShouldFail_WithNonExistentTable(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithTableNames(postgresengine.TableNames{
		Author:        "non_existent_table_1",
		Book:          "book",
		Member:        "member",
		RentalHistory: "rental_history",
	}))
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// act
	_, err := store.QueryAuthors(ctxWithTimeout, librarystore.AuthorQuery{})

	// assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
