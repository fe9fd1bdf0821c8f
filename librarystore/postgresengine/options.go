package postgresengine

import (
	"github.com/shelfkeeper/library-store-go/librarystore"
)

// Option defines a functional option for configuring the LibraryStore.
type Option func(*LibraryStore) error

// WithTableNames overrides the default table names.
// All four names must be non-empty.
func WithTableNames(tables TableNames) Option {
	return func(ls *LibraryStore) error {
		for _, tableName := range []string{tables.Author, tables.Book, tables.Member, tables.RentalHistory} {
			if tableName == "" {
				return librarystore.ErrEmptyTableNameSupplied
			}
		}

		ls.tables = tables

		return nil
	}
}

// WithLogger sets a logger for the store.
func WithLogger(logger librarystore.Logger) Option {
	return func(ls *LibraryStore) error {
		ls.logger = logger

		return nil
	}
}

// WithContextualLogger sets a contextual logger for the store.
// When both loggers are configured the contextual one takes precedence.
func WithContextualLogger(logger librarystore.ContextualLogger) Option {
	return func(ls *LibraryStore) error {
		ls.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets a metrics collector for the store.
func WithMetrics(collector librarystore.MetricsCollector) Option {
	return func(ls *LibraryStore) error {
		ls.metricsCollector = collector

		return nil
	}
}

// WithTracing sets a tracing collector for the store.
func WithTracing(collector librarystore.TracingCollector) Option {
	return func(ls *LibraryStore) error {
		ls.tracingCollector = collector

		return nil
	}
}
