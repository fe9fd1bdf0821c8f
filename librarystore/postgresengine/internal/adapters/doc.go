// Package adapters provides database adapter implementations for the PostgreSQL library store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database
// libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent
// functionality through a common DBAdapter interface, allowing the store to work
// seamlessly with any supported database connection type.
//
// Besides plain query and statement execution, the adapters expose explicit
// transactions (DBTx) because the rental path needs a conditional update and a
// history insert to commit or roll back as one unit.
package adapters
