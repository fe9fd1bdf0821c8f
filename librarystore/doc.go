// Package librarystore provides the core abstractions and types for a
// library catalog and rental store backed by a relational database.
//
// This package defines the entity types (authors, books, members, rental
// records), the optional-field filter types used to build parameterized
// lookups, and the common error definitions shared by all store engines.
//
// Filters treat every field independently: a set field contributes an
// equality predicate, an unset field imposes no constraint, and all present
// predicates are combined with AND. A query whose filter has no set fields
// returns every row of the entity.
//
// Key types:
//   - AuthorQuery, BookQuery, MemberQuery: per-entity optional-field filters
//   - Filter: the generic field-predicate list the engines consume
//   - Author, Book, Member, RentalHistoryRow: entity and read-model types
//
// Common usage pattern:
//
//	query := librarystore.BookQuery{
//		Author: librarystore.Set("Jane Doe"),
//		Status: librarystore.Set(librarystore.StatusAvailable),
//	}
//
//	books, err := store.QueryBooks(ctx, query)
//	if errors.Is(err, librarystore.ErrNotFound) {
//		// query executed but matched nothing
//	}
package librarystore
