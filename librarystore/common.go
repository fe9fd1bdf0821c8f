package librarystore

import (
	"errors"
)

// Business outcomes. Both are expected results of well-formed requests and
// must be distinguishable from infrastructure faults with errors.Is.
var ErrNotFound = errors.New("no rows matched the query")
var ErrRentalConflict = errors.New("rental conflict, book is not available")

// ErrStoreFailure is joined onto every infrastructure-level failure
// (connection, timeout, query building, scanning, transaction control)
// together with a more specific sentinel and the driver cause.
var ErrStoreFailure = errors.New("store operation failed")

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")
var ErrInvalidBookStatus = errors.New("invalid book status supplied")

var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrQueryingRowsFailed = errors.New("querying rows failed")
var ErrScanningRowFailed = errors.New("scanning database row failed")
var ErrExecutingStatementFailed = errors.New("executing sql statement failed")
var ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
var ErrBeginningTransactionFailed = errors.New("beginning transaction failed")
var ErrCommittingTransactionFailed = errors.New("committing transaction failed")
