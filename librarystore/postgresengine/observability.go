package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shelfkeeper/library-store-go/librarystore"
	"github.com/shelfkeeper/library-store-go/librarystore/postgresengine/internal/adapters"
)

const (
	metricOperationDuration = "librarystore_operation_duration_seconds"
	metricRowsReturned      = "librarystore_rows_returned"
	metricStoreErrors       = "librarystore_errors_total"
	metricRentalConflicts   = "librarystore_rental_conflicts_total"

	spanNamePrefix       = "librarystore."
	spanAttrOperation    = "operation"
	spanAttrErrorType    = "error_type"
	spanAttrRowCount     = "row_count"
	spanAttrRowsAffected = "rows_affected"
	spanAttrDurationMS   = "duration_ms"

	labelStatus       = "status"
	labelConflictType = "conflict_type"

	statusSuccess  = "success"
	statusError    = "error"
	statusNotFound = "not_found"
	statusConflict = "conflict"

	errorTypeQuery        = "query"
	errorTypeScan         = "scan"
	errorTypeExec         = "exec"
	errorTypeRowsAffected = "rows_affected"
	errorTypeBeginTx      = "begin_tx"
	errorTypeCommit       = "commit"

	conflictTypeRental = "rental"
)

/***** logging *****/

// logQueryWithDuration logs SQL statements with execution time at debug level,
// preferring the contextual logger when both are configured.
func (ls *LibraryStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	operation string,
	duration time.Duration,
) {
	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation,
			logAttrDurationMS, ls.toMilliseconds(duration), logAttrQuery, sqlQuery)
	case ls.logger != nil:
		ls.logger.Debug(logMsgSQLExecuted+operation,
			logAttrDurationMS, ls.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (ls *LibraryStore) logOperation(ctx context.Context, operation string, args ...any) {
	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.InfoContext(ctx, logMsgOperation+operation, args...)
	case ls.logger != nil:
		ls.logger.Info(logMsgOperation+operation, args...)
	}
}

// logWarn logs warnings if a logger is configured.
func (ls *LibraryStore) logWarn(ctx context.Context, message string, args ...any) {
	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.WarnContext(ctx, message, args...)
	case ls.logger != nil:
		ls.logger.Warn(message, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (ls *LibraryStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case ls.contextualLogger != nil:
		ls.contextualLogger.ErrorContext(ctx, message, allArgs...)
	case ls.logger != nil:
		ls.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ls *LibraryStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

/***** query/statement execution with logging *****/

// executeQuery runs one SQL statement against the adapter, logging the
// statement with its duration. The returned duration is always valid,
// including on error, so observers can record it.
func (ls *LibraryStore) executeQuery(
	ctx context.Context,
	operation string,
	sqlQuery sqlQueryString,
) (adapters.DBRows, time.Duration, error) {

	start := time.Now()
	rows, queryErr := ls.db.Query(ctx, sqlQuery)
	duration := time.Since(start)

	ls.logQueryWithDuration(ctx, sqlQuery, operation, duration)

	if queryErr != nil {
		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrQueryingRowsFailed, queryErr)
		ls.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, err
	}

	return rows, duration, nil
}

// closeRows closes the rows of a finished query, logging a warning on failure.
func (ls *LibraryStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		ls.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

/***** metrics *****/

// recordDurationMetricsContext records duration metrics with context if the collector supports it.
func (ls *LibraryStore) recordDurationMetricsContext(
	ctx context.Context,
	duration time.Duration,
	operation, status string,
) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := ls.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		ls.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordValueMetricsContext records value metrics with context if the collector supports it.
func (ls *LibraryStore) recordValueMetricsContext(
	ctx context.Context,
	metricName string,
	value float64,
	operation, status string,
) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := ls.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		ls.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// recordErrorMetricsContext records error metrics with context if the collector supports it.
func (ls *LibraryStore) recordErrorMetricsContext(ctx context.Context, operation, errorType string) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := ls.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricStoreErrors, labels)
	} else {
		ls.metricsCollector.IncrementCounter(metricStoreErrors, labels)
	}
}

// recordRentalConflictMetrics records rental conflict metrics if the collector is configured.
func (ls *LibraryStore) recordRentalConflictMetrics(ctx context.Context, operation string) {
	if ls.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelConflictType: conflictTypeRental,
	}

	if contextualCollector, ok := ls.metricsCollector.(librarystore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricRentalConflicts, labels)
	} else {
		ls.metricsCollector.IncrementCounter(metricRentalConflicts, labels)
	}
}

// === Metrics Observer Pattern ===
// The observer encapsulates the metrics recording for one store operation.

type operationMetricsObserver struct {
	ls        *LibraryStore
	ctx       context.Context
	operation string
}

// startOperationMetrics creates a new metrics observer for one store operation.
func (ls *LibraryStore) startOperationMetrics(ctx context.Context, operation string) *operationMetricsObserver {
	return &operationMetricsObserver{
		ls:        ls,
		ctx:       ctx,
		operation: operation,
	}
}

// recordSuccess records all metrics for a successful operation.
func (omo *operationMetricsObserver) recordSuccess(rowCount int, duration time.Duration) {
	omo.ls.recordDurationMetricsContext(omo.ctx, duration, omo.operation, statusSuccess)
	omo.ls.recordValueMetricsContext(omo.ctx, metricRowsReturned, float64(rowCount), omo.operation, statusSuccess)
}

// recordNotFound records the duration of an operation that matched no rows.
// An empty result is a business outcome, so no error counter is incremented.
func (omo *operationMetricsObserver) recordNotFound(duration time.Duration) {
	omo.ls.recordDurationMetricsContext(omo.ctx, duration, omo.operation, statusNotFound)
}

// recordError records all metrics for a failed operation.
func (omo *operationMetricsObserver) recordError(errorType string, duration time.Duration) {
	omo.ls.recordDurationMetricsContext(omo.ctx, duration, omo.operation, statusError)
	omo.ls.recordErrorMetricsContext(omo.ctx, omo.operation, errorType)
}

// recordConflict records metrics for a rental conflict.
func (omo *operationMetricsObserver) recordConflict(duration time.Duration) {
	omo.ls.recordDurationMetricsContext(omo.ctx, duration, omo.operation, statusConflict)
	omo.ls.recordRentalConflictMetrics(omo.ctx, omo.operation)
}

// === Tracing Observer Pattern ===
// The observer encapsulates span lifecycle management for one store operation.

type operationTracingObserver struct {
	ls   *LibraryStore
	span librarystore.SpanContext
}

// startOperationTracing starts a span for one store operation if the tracing
// collector is configured. The returned context carries the span.
func (ls *LibraryStore) startOperationTracing(
	ctx context.Context,
	operation string,
) (*operationTracingObserver, context.Context) {

	if ls.tracingCollector == nil {
		return &operationTracingObserver{ls: ls}, ctx
	}

	newCtx, span := ls.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
		spanAttrOperation: operation,
	})

	return &operationTracingObserver{ls: ls, span: span}, newCtx
}

// finishSuccess completes the span for a successful operation.
func (oto *operationTracingObserver) finishSuccess(rowCount int, duration time.Duration) {
	if oto.span == nil {
		return
	}

	oto.span.SetStatus(statusSuccess)
	oto.span.AddAttribute(spanAttrRowCount, strconv.Itoa(rowCount))
	oto.span.AddAttribute(spanAttrDurationMS, oto.formatDuration(duration))

	oto.ls.tracingCollector.FinishSpan(oto.span, statusSuccess, map[string]string{
		spanAttrRowCount: strconv.Itoa(rowCount),
	})
}

// finishNotFound completes the span for an operation that matched no rows.
func (oto *operationTracingObserver) finishNotFound(duration time.Duration) {
	if oto.span == nil {
		return
	}

	oto.span.SetStatus(statusNotFound)
	oto.span.AddAttribute(spanAttrRowCount, "0")
	oto.span.AddAttribute(spanAttrDurationMS, oto.formatDuration(duration))

	oto.ls.tracingCollector.FinishSpan(oto.span, statusNotFound, nil)
}

// finishError completes the span with error details.
func (oto *operationTracingObserver) finishError(errorType string, duration time.Duration) {
	if oto.span == nil {
		return
	}

	oto.span.SetStatus(statusError)
	oto.span.AddAttribute(spanAttrErrorType, errorType)

	if duration > 0 {
		oto.span.AddAttribute(spanAttrDurationMS, oto.formatDuration(duration))
	}

	oto.ls.tracingCollector.FinishSpan(oto.span, statusError, map[string]string{
		spanAttrErrorType: errorType,
	})
}

// finishConflict completes the span for a rental conflict.
func (oto *operationTracingObserver) finishConflict(duration time.Duration) {
	if oto.span == nil {
		return
	}

	oto.span.SetStatus(statusConflict)
	oto.span.AddAttribute(spanAttrDurationMS, oto.formatDuration(duration))

	oto.ls.tracingCollector.FinishSpan(oto.span, statusConflict, map[string]string{
		labelConflictType: conflictTypeRental,
	})
}

func (oto *operationTracingObserver) formatDuration(duration time.Duration) string {
	return fmt.Sprintf("%.2f", oto.ls.toMilliseconds(duration))
}
