// Package postgresengine provides the PostgreSQL implementation of the library store.
//
// This package implements the catalog queries and the atomic rental operation
// using PostgreSQL as the storage backend, supporting multiple database
// adapters (pgx, sql.DB, sqlx).
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Optional-filter catalog queries built with goqu
//   - Atomic book rental with conflict detection via conditional update
//   - Configurable table names and dual-logger support
//   - Transaction-safe operations with proper resource cleanup
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewLibraryStoreFromPGXPool(db)
//
//	// With operational logging and custom table names
//	store, _ := postgresengine.NewLibraryStoreFromPGXPool(
//		db,
//		postgresengine.WithTableNames(postgresengine.TableNames{
//			Author:        "author",
//			Book:          "book",
//			Member:        "member",
//			RentalHistory: "rental_history",
//		}),
//		postgresengine.WithLogger(logger),
//	)
//
//	books, _ := store.QueryBooks(ctx, librarystore.BookQuery{Status: librarystore.Set(librarystore.StatusAvailable)})
//	err := store.RentBook(ctx, librarystore.RentalRequest{NationID: "123", BookName: "Dune", DueDate: "2024-07-01"})
package postgresengine
