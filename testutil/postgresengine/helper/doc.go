// Package helper provides testing utilities and observability test doubles for
// the PostgreSQL library store.
//
// This package contains shared testing infrastructure including fixture
// builders and Given* arrangement helpers, plus spies for capturing and
// validating log output, metrics, and tracing spans during tests.
package helper
