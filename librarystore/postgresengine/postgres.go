package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/shelfkeeper/library-store-go/librarystore"
	"github.com/shelfkeeper/library-store-go/librarystore/postgresengine/internal/adapters"
)

const (
	defaultAuthorTableName = "author"
	defaultBookTableName   = "book"
	defaultMemberTableName = "member"
	defaultRentalTableName = "rental_history"

	colID        = "id"
	colName      = "name"
	colCountry   = "country"
	colBirthDate = "birth_date"
	colYear      = "year"
	colCategory  = "category"
	colStatus    = "status"
	colAuthor    = "author"
	colNationID  = "nation_id"
	colBookName  = "book_name"
	colDueDate   = "due_date"

	aliasBooks     = "books"
	aliasUserName  = "user_name"
	cteUpdatedBook = "updated_book"
	emptyBooksJSON = "'[]'"

	dialectPostgres = "postgres"

	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgDBExecFailed       = "database execution failed during rental"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgInsertNoIDReturned = "insert statement returned no identifier"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitTxFailed     = "failed to commit transaction"
	logMsgRollbackTxFailed   = "failed to roll back transaction"
	logMsgRentalConflict     = "rental conflict detected"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "librarystore operation: "

	logAttrError        = "error"
	logAttrQuery        = "query"
	logAttrRowCount     = "row_count"
	logAttrRowsAffected = "rows_affected"
	logAttrDurationMS   = "duration_ms"
	logAttrBookName     = "book_name"
	logAttrNationID     = "nation_id"

	operationQueryAuthors     = "query_authors"
	operationQueryBooks       = "query_books"
	operationQueryMembers     = "query_members"
	operationGetAuthor        = "get_author"
	operationGetBook          = "get_book"
	operationGetMemberHistory = "get_member_history"
	operationInsertAuthor     = "insert_author"
	operationInsertBook       = "insert_book"
	operationInsertMember     = "insert_member"
	operationRentBook         = "rent_book"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// TableNames holds the names of the four tables the store operates on.
type TableNames struct {
	Author        string
	Book          string
	Member        string
	RentalHistory string
}

func defaultTableNames() TableNames {
	return TableNames{
		Author:        defaultAuthorTableName,
		Book:          defaultBookTableName,
		Member:        defaultMemberTableName,
		RentalHistory: defaultRentalTableName,
	}
}

// LibraryStore is the PostgreSQL implementation of the library catalog and
// rental store. It is stateless apart from the pooled database connection:
// it is safe for concurrent use, and all concurrency correctness for rentals
// is delegated to the database's transactional isolation.
type LibraryStore struct {
	db               adapters.DBAdapter
	tables           TableNames
	logger           librarystore.Logger
	contextualLogger librarystore.ContextualLogger
	metricsCollector librarystore.MetricsCollector
	tracingCollector librarystore.TracingCollector
}

// NewLibraryStoreFromPGXPool creates a new LibraryStore using a pgx pool with optional configuration.
func NewLibraryStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*LibraryStore, error) {
	if db == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newLibraryStore(adapters.NewPGXAdapter(db), options...)
}

// NewLibraryStoreFromSQLDB creates a new LibraryStore using a sql.DB with optional configuration.
func NewLibraryStoreFromSQLDB(db *sql.DB, options ...Option) (*LibraryStore, error) {
	if db == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newLibraryStore(adapters.NewSQLAdapter(db), options...)
}

// NewLibraryStoreFromSQLX creates a new LibraryStore using a sqlx.DB with optional configuration.
func NewLibraryStoreFromSQLX(db *sqlx.DB, options ...Option) (*LibraryStore, error) {
	if db == nil {
		return nil, librarystore.ErrNilDatabaseConnection
	}

	return newLibraryStore(adapters.NewSQLXAdapter(db), options...)
}

func newLibraryStore(db adapters.DBAdapter, options ...Option) (*LibraryStore, error) {
	ls := &LibraryStore{
		db:     db,
		tables: defaultTableNames(),
	}

	for _, option := range options {
		if err := option(ls); err != nil {
			return nil, err
		}
	}

	return ls, nil
}

/***** queries *****/

// QueryAuthors retrieves all authors matching the set fields of the query.
// Fields left unset impose no constraint; a query with no set fields returns
// every author. An empty result is reported as librarystore.ErrNotFound.
func (ls *LibraryStore) QueryAuthors(ctx context.Context, query librarystore.AuthorQuery) ([]librarystore.Author, error) {
	sqlQuery, buildErr := ls.buildAuthorsSelectQuery(query.Filter())
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return nil, buildErr
	}

	return executeSelect(ctx, ls, operationQueryAuthors, sqlQuery, scanAuthorRow)
}

// QueryBooks retrieves all books matching the set fields of the query, with
// the same optional-filter semantics as QueryAuthors.
func (ls *LibraryStore) QueryBooks(ctx context.Context, query librarystore.BookQuery) ([]librarystore.Book, error) {
	sqlQuery, buildErr := ls.buildBooksSelectQuery(query.Filter())
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return nil, buildErr
	}

	return executeSelect(ctx, ls, operationQueryBooks, sqlQuery, scanBookRow)
}

// QueryMembers retrieves rows of the member/rental-history join matching the
// set fields of the query, with the same optional-filter semantics as
// QueryAuthors. Members without rental history do not appear.
func (ls *LibraryStore) QueryMembers(ctx context.Context, query librarystore.MemberQuery) ([]librarystore.MemberRentalRow, error) {
	sqlQuery, buildErr := ls.buildMembersSelectQuery(query.Filter())
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return nil, buildErr
	}

	return executeSelect(ctx, ls, operationQueryMembers, sqlQuery, scanMemberRentalRow)
}

// GetAuthor retrieves one author by identifier together with the names of
// all books whose author field equals the author's name. The book list is
// aggregated at read time; it is empty (not nil) for an author with no books.
func (ls *LibraryStore) GetAuthor(ctx context.Context, authorID uuid.UUID) (librarystore.AuthorDetail, error) {
	sqlQuery, buildErr := ls.buildAuthorDetailQuery(authorID)
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return librarystore.AuthorDetail{}, buildErr
	}

	result, err := executeSelect(ctx, ls, operationGetAuthor, sqlQuery, scanAuthorDetailRow)
	if err != nil {
		return librarystore.AuthorDetail{}, err
	}

	return result[0], nil
}

// GetBook retrieves one book by identifier.
func (ls *LibraryStore) GetBook(ctx context.Context, bookID uuid.UUID) (librarystore.Book, error) {
	sqlQuery, buildErr := ls.buildBookDetailQuery(bookID)
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return librarystore.Book{}, buildErr
	}

	result, err := executeSelect(ctx, ls, operationGetBook, sqlQuery, scanBookRow)
	if err != nil {
		return librarystore.Book{}, err
	}

	return result[0], nil
}

// GetMemberHistory retrieves the full rental history for one member by
// natural key, joined with the member's name. A member with no history
// yields librarystore.ErrNotFound.
func (ls *LibraryStore) GetMemberHistory(ctx context.Context, nationID string) ([]librarystore.RentalHistoryRow, error) {
	sqlQuery, buildErr := ls.buildMemberHistoryQuery(nationID)
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return nil, buildErr
	}

	return executeSelect(ctx, ls, operationGetMemberHistory, sqlQuery, scanRentalHistoryRow)
}

/***** inserts *****/

// InsertAuthor inserts one author row and returns its generated identifier.
func (ls *LibraryStore) InsertAuthor(ctx context.Context, author librarystore.Author) (uuid.UUID, error) {
	sqlQuery, buildErr := ls.buildInsertQuery(ls.tables.Author, goqu.Record{
		colName:      author.Name,
		colCountry:   author.Country,
		colBirthDate: author.BirthDate,
	})
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return uuid.Nil, buildErr
	}

	return ls.executeInsertReturningID(ctx, operationInsertAuthor, sqlQuery)
}

// InsertBook inserts one book row and returns its generated identifier.
// A zero status defaults to StatusAvailable; an unknown status is rejected
// with librarystore.ErrInvalidBookStatus.
func (ls *LibraryStore) InsertBook(ctx context.Context, book librarystore.Book) (uuid.UUID, error) {
	if book.Status == "" {
		book.Status = librarystore.StatusAvailable
	}

	if !book.Status.IsValid() {
		return uuid.Nil, librarystore.ErrInvalidBookStatus
	}

	sqlQuery, buildErr := ls.buildInsertQuery(ls.tables.Book, goqu.Record{
		colName:     book.Name,
		colYear:     book.Year,
		colCategory: book.Category,
		colStatus:   string(book.Status),
		colAuthor:   book.Author,
	})
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return uuid.Nil, buildErr
	}

	return ls.executeInsertReturningID(ctx, operationInsertBook, sqlQuery)
}

// InsertMember inserts one member row and returns its generated identifier.
func (ls *LibraryStore) InsertMember(ctx context.Context, member librarystore.Member) (uuid.UUID, error) {
	sqlQuery, buildErr := ls.buildInsertQuery(ls.tables.Member, goqu.Record{
		colNationID: member.NationID,
		colName:     member.Name,
	})
	if buildErr != nil {
		ls.logError(ctx, logMsgBuildQueryFailed, buildErr)
		return uuid.Nil, buildErr
	}

	return ls.executeInsertReturningID(ctx, operationInsertMember, sqlQuery)
}

/***** execution helpers *****/

// executeSelect runs a select statement and scans every row with scanRow.
// An empty result yields librarystore.ErrNotFound by contract, so callers
// can tell "matched nothing" from "failed".
func executeSelect[T any](
	ctx context.Context,
	ls *LibraryStore,
	operation string,
	sqlQuery sqlQueryString,
	scanRow func(rows adapters.DBRows) (T, error),
) ([]T, error) {

	tracing, ctx := ls.startOperationTracing(ctx, operation)
	metrics := ls.startOperationMetrics(ctx, operation)

	rows, duration, queryErr := ls.executeQuery(ctx, operation, sqlQuery)
	if queryErr != nil {
		metrics.recordError(errorTypeQuery, duration)
		tracing.finishError(errorTypeQuery, duration)

		return nil, queryErr
	}
	defer ls.closeRows(ctx, rows)

	result := make([]T, 0)

	for rows.Next() {
		item, scanErr := scanRow(rows)
		if scanErr != nil {
			err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrScanningRowFailed, scanErr)
			ls.logError(ctx, logMsgScanRowFailed, scanErr)
			metrics.recordError(errorTypeScan, duration)
			tracing.finishError(errorTypeScan, duration)

			return nil, err
		}

		result = append(result, item)
	}

	if len(result) == 0 {
		ls.logOperation(ctx, operation, logAttrRowCount, 0, logAttrDurationMS, ls.toMilliseconds(duration))
		metrics.recordNotFound(duration)
		tracing.finishNotFound(duration)

		return nil, librarystore.ErrNotFound
	}

	metrics.recordSuccess(len(result), duration)
	tracing.finishSuccess(len(result), duration)

	ls.logOperation(ctx, operation, logAttrRowCount, len(result), logAttrDurationMS, ls.toMilliseconds(duration))

	return result, nil
}

// executeInsertReturningID runs an insert statement with a RETURNING clause
// and scans the generated identifier.
func (ls *LibraryStore) executeInsertReturningID(
	ctx context.Context,
	operation string,
	sqlQuery sqlQueryString,
) (uuid.UUID, error) {

	tracing, ctx := ls.startOperationTracing(ctx, operation)
	metrics := ls.startOperationMetrics(ctx, operation)

	rows, duration, queryErr := ls.executeQuery(ctx, operation, sqlQuery)
	if queryErr != nil {
		metrics.recordError(errorTypeExec, duration)
		tracing.finishError(errorTypeExec, duration)

		return uuid.Nil, queryErr
	}
	defer ls.closeRows(ctx, rows)

	var id uuid.UUID

	if !rows.Next() {
		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrExecutingStatementFailed)
		ls.logError(ctx, logMsgInsertNoIDReturned, err, logAttrQuery, sqlQuery)
		metrics.recordError(errorTypeExec, duration)
		tracing.finishError(errorTypeExec, duration)

		return uuid.Nil, err
	}

	if scanErr := rows.Scan(&id); scanErr != nil {
		err := errors.Join(librarystore.ErrStoreFailure, librarystore.ErrScanningRowFailed, scanErr)
		ls.logError(ctx, logMsgScanRowFailed, scanErr)
		metrics.recordError(errorTypeScan, duration)
		tracing.finishError(errorTypeScan, duration)

		return uuid.Nil, err
	}

	metrics.recordSuccess(1, duration)
	tracing.finishSuccess(1, duration)

	ls.logOperation(ctx, operation, logAttrDurationMS, ls.toMilliseconds(duration))

	return id, nil
}

/***** scan functions *****/

func scanAuthorRow(rows adapters.DBRows) (librarystore.Author, error) {
	var author librarystore.Author
	err := rows.Scan(&author.Name, &author.Country, &author.BirthDate)

	return author, err
}

func scanBookRow(rows adapters.DBRows) (librarystore.Book, error) {
	var book librarystore.Book
	err := rows.Scan(&book.Name, &book.Year, &book.Category, &book.Status, &book.Author)

	return book, err
}

func scanMemberRentalRow(rows adapters.DBRows) (librarystore.MemberRentalRow, error) {
	var row librarystore.MemberRentalRow
	err := rows.Scan(&row.NationID, &row.UserName, &row.BookName)

	return row, err
}

func scanRentalHistoryRow(rows adapters.DBRows) (librarystore.RentalHistoryRow, error) {
	var row librarystore.RentalHistoryRow
	err := rows.Scan(&row.Name, &row.NationID, &row.BookName, &row.DueDate)

	return row, err
}

func scanAuthorDetailRow(rows adapters.DBRows) (librarystore.AuthorDetail, error) {
	var detail librarystore.AuthorDetail
	var booksJSON []byte

	if err := rows.Scan(&detail.Name, &detail.Country, &detail.BirthDate, &booksJSON); err != nil {
		return librarystore.AuthorDetail{}, err
	}

	if err := jsoniter.Unmarshal(booksJSON, &detail.Books); err != nil {
		return librarystore.AuthorDetail{}, err
	}

	return detail, nil
}

/***** query building *****/

func (ls *LibraryStore) buildAuthorsSelectQuery(filter librarystore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ls.tables.Author).
		Select(colName, colCountry, colBirthDate)

	selectStmt = addWhereClause(filter, selectStmt, plainColumn)

	return toSQL(selectStmt)
}

func (ls *LibraryStore) buildBooksSelectQuery(filter librarystore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ls.tables.Book).
		Select(colName, colYear, colCategory, colStatus, colAuthor)

	selectStmt = addWhereClause(filter, selectStmt, plainColumn)

	return toSQL(selectStmt)
}

func (ls *LibraryStore) buildMembersSelectQuery(filter librarystore.Filter) (sqlQueryString, error) {
	memberTable := ls.tables.Member
	rentalTable := ls.tables.RentalHistory

	selectStmt := goqu.Dialect(dialectPostgres).
		From(rentalTable).
		Join(
			goqu.T(memberTable),
			goqu.On(goqu.I(memberTable+"."+colNationID).Eq(goqu.I(rentalTable+"."+colNationID))),
		).
		Select(
			goqu.I(memberTable+"."+colNationID),
			goqu.I(memberTable+"."+colName).As(aliasUserName),
			goqu.I(rentalTable+"."+colBookName),
		)

	selectStmt = addWhereClause(filter, selectStmt, ls.memberJoinColumn)

	return toSQL(selectStmt)
}

func (ls *LibraryStore) buildAuthorDetailQuery(authorID uuid.UUID) (sqlQueryString, error) {
	authorTable := ls.tables.Author
	bookTable := ls.tables.Book

	// json_agg instead of array_agg: every adapter can scan a JSON value
	// as bytes, while Postgres arrays need driver-specific handling.
	aggBooks := goqu.L(fmt.Sprintf(
		"coalesce(json_agg(%s.%s) filter (where %s.%s is not null), %s)",
		bookTable, colName, bookTable, colName, emptyBooksJSON,
	)).As(aliasBooks)

	selectStmt := goqu.Dialect(dialectPostgres).
		From(authorTable).
		LeftJoin(
			goqu.T(bookTable),
			goqu.On(goqu.I(bookTable+"."+colAuthor).Eq(goqu.I(authorTable+"."+colName))),
		).
		Select(
			goqu.I(authorTable+"."+colName),
			goqu.I(authorTable+"."+colCountry),
			goqu.I(authorTable+"."+colBirthDate),
			aggBooks,
		).
		Where(goqu.I(authorTable+"."+colID).Eq(authorID.String())).
		GroupBy(
			goqu.I(authorTable+"."+colID),
			goqu.I(authorTable+"."+colName),
			goqu.I(authorTable+"."+colCountry),
			goqu.I(authorTable+"."+colBirthDate),
		)

	return toSQL(selectStmt)
}

func (ls *LibraryStore) buildBookDetailQuery(bookID uuid.UUID) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ls.tables.Book).
		Select(colName, colYear, colCategory, colStatus, colAuthor).
		Where(goqu.C(colID).Eq(bookID.String()))

	return toSQL(selectStmt)
}

func (ls *LibraryStore) buildMemberHistoryQuery(nationID string) (sqlQueryString, error) {
	memberTable := ls.tables.Member
	rentalTable := ls.tables.RentalHistory

	selectStmt := goqu.Dialect(dialectPostgres).
		From(rentalTable).
		Join(
			goqu.T(memberTable),
			goqu.On(goqu.I(memberTable+"."+colNationID).Eq(goqu.I(rentalTable+"."+colNationID))),
		).
		Select(
			goqu.I(memberTable+"."+colName),
			goqu.I(rentalTable+"."+colNationID),
			goqu.I(rentalTable+"."+colBookName),
			goqu.I(rentalTable+"."+colDueDate),
		).
		Where(goqu.I(rentalTable + "." + colNationID).Eq(nationID))

	return toSQL(selectStmt)
}

func (ls *LibraryStore) buildInsertQuery(tableName string, record goqu.Record) (sqlQueryString, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(tableName).
		Rows(record).
		Returning(colID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(librarystore.ErrStoreFailure, librarystore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// columnResolver maps a logical filter field to the column it selects on.
type columnResolver func(field librarystore.FilterFieldString) exp.IdentifierExpression

func plainColumn(field librarystore.FilterFieldString) exp.IdentifierExpression {
	return goqu.C(field)
}

// memberJoinColumn maps the member-query fields onto the qualified columns
// of the member/rental-history join.
func (ls *LibraryStore) memberJoinColumn(field librarystore.FilterFieldString) exp.IdentifierExpression {
	switch field {
	case librarystore.FieldMemberUserName:
		return goqu.I(ls.tables.Member + "." + colName)
	case librarystore.FieldMemberBookName:
		return goqu.I(ls.tables.RentalHistory + "." + colBookName)
	default:
		return goqu.C(field)
	}
}

// addWhereClause appends one equality predicate per set filter field, all
// combined with AND. An empty filter leaves the statement unconstrained.
func addWhereClause(
	filter librarystore.Filter,
	selectStmt *goqu.SelectDataset,
	resolve columnResolver,
) *goqu.SelectDataset {

	if filter.IsEmpty() {
		return selectStmt
	}

	predicateExpressions := make([]goqu.Expression, 0, len(filter.Predicates()))

	for _, predicate := range filter.Predicates() {
		predicateExpressions = append(
			predicateExpressions,
			resolve(predicate.Field()).Eq(predicate.Val()),
		)
	}

	return selectStmt.Where(goqu.And(predicateExpressions...))
}

func toSQL(selectStmt *goqu.SelectDataset) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(librarystore.ErrStoreFailure, librarystore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
