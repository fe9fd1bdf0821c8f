package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfkeeper/library-store-go/librarystore"
	"github.com/shelfkeeper/library-store-go/librarystore/postgresengine/internal/adapters"
)

// RentBook atomically marks a book as rented and records the rental in the
// member's history. Both effects happen inside one transaction: the book row
// is updated only if its status is still StatusAvailable, and the history row
// is derived from the updated row, so it is written exactly when the update
// takes effect.
//
// When the book does not exist or is not available, zero rows are affected,
// the transaction is rolled back and librarystore.ErrRentalConflict is
// returned. Under concurrent calls for the same book the database serializes
// the conditional update on the row lock, so exactly one caller wins.
//
// The member and the due date are not validated against other tables; the
// caller is expected to resolve the member beforehand.
func (ls *LibraryStore) RentBook(ctx context.Context, rental librarystore.RentalRequest) error {
	tracing, ctx := ls.startOperationTracing(ctx, operationRentBook)
	metrics := ls.startOperationMetrics(ctx, operationRentBook)

	sqlQuery, buildErr := ls.buildRentBookQuery(rental)
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		metrics.recordError(errorTypeExec, 0)
		tracing.finishError(errorTypeExec, 0)

		return buildErr
	}

	tx, beginErr := ls.db.Begin(ctx)
	if beginErr != nil {
		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrBeginningTransactionFailed, beginErr)
		ls.logError(ctx, logMsgBeginTxFailed, beginErr)
		metrics.recordError(errorTypeBeginTx, 0)
		tracing.finishError(errorTypeBeginTx, 0)

		return err
	}

	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery)
	duration := time.Since(start)

	ls.logQueryWithDuration(ctx, sqlQuery, operationRentBook, duration)

	if execErr != nil {
		ls.rollback(ctx, tx)

		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrExecutingStatementFailed, execErr)
		ls.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		metrics.recordError(errorTypeExec, duration)
		tracing.finishError(errorTypeExec, duration)

		return err
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		ls.rollback(ctx, tx)

		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
		ls.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		metrics.recordError(errorTypeRowsAffected, duration)
		tracing.finishError(errorTypeRowsAffected, duration)

		return err
	}

	if rowsAffected == rowsAffectedInt64(0) {
		ls.rollback(ctx, tx)

		ls.logOperation(ctx, logMsgRentalConflict,
			logAttrBookName, rental.BookName, logAttrNationID, rental.NationID)
		metrics.recordConflict(duration)
		tracing.finishConflict(duration)

		return librarystore.ErrRentalConflict
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrCommittingTransactionFailed, commitErr)
		ls.logError(ctx, logMsgCommitTxFailed, commitErr)
		metrics.recordError(errorTypeCommit, duration)
		tracing.finishError(errorTypeCommit, duration)

		return err
	}

	metrics.recordSuccess(int(rowsAffected), duration)
	tracing.finishSuccess(int(rowsAffected), duration)

	ls.logOperation(ctx, operationRentBook,
		logAttrBookName, rental.BookName,
		logAttrNationID, rental.NationID,
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, ls.toMilliseconds(duration))

	return nil
}

// rollback rolls the transaction back, logging a warning on failure.
func (ls *LibraryStore) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		ls.logWarn(ctx, logMsgRollbackTxFailed, logAttrError, rollbackErr.Error())
	}
}

// buildRentBookQuery builds the combined statement for the rental: a CTE
// updates the book row to StatusRented, guarded on the current status being
// StatusAvailable, and the insert into the rental history selects from the
// CTE. The insert therefore writes zero rows exactly when the update touched
// zero rows, and the overall rows-affected count decides the outcome.
func (ls *LibraryStore) buildRentBookQuery(rental librarystore.RentalRequest) (sqlQueryString, error) {
	builder := goqu.Dialect(dialectPostgres)

	updateStmt := builder.
		Update(ls.tables.Book).
		Set(goqu.Record{colStatus: string(librarystore.StatusRented)}).
		Where(goqu.Ex{
			colName:   rental.BookName,
			colStatus: string(librarystore.StatusAvailable),
		}).
		Returning(colName)

	insertStmt := builder.
		Insert(ls.tables.RentalHistory).
		Cols(colNationID, colBookName, colDueDate).
		With(cteUpdatedBook, updateStmt).
		FromQuery(
			builder.From(cteUpdatedBook).
				Select(goqu.V(rental.NationID), goqu.C(colName), goqu.V(rental.DueDate)),
		)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(librarystore.ErrStoreFailure, librarystore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
