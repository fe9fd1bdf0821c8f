package helper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shelfkeeper/library-store-go/librarystore"
	"github.com/shelfkeeper/library-store-go/librarystore/postgresengine"
)

// GivenUniqueID generates a unique UUID for testing.
func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// UniqueName derives a unique name from the prefix so that concurrent tests
// never collide on the name columns.
func UniqueName(t testing.TB, prefix string) string {
	return prefix + "-" + GivenUniqueID(t).String()
}

// FixtureAuthor creates an author row for testing.
func FixtureAuthor(name string) librarystore.Author {
	return librarystore.Author{
		Name:      name,
		Country:   "United Kingdom",
		BirthDate: "1903-06-25",
	}
}

// FixtureBook creates an available book row for testing.
func FixtureBook(name string, author string) librarystore.Book {
	return librarystore.Book{
		Name:     name,
		Year:     1949,
		Category: "Dystopian",
		Status:   librarystore.StatusAvailable,
		Author:   author,
	}
}

// FixtureMember creates a member row for testing.
func FixtureMember(nationID string, name string) librarystore.Member {
	return librarystore.Member{
		NationID: nationID,
		Name:     name,
	}
}

// FixtureRentalRequest creates a rental request for testing.
func FixtureRentalRequest(nationID string, bookName string) librarystore.RentalRequest {
	return librarystore.RentalRequest{
		NationID: nationID,
		BookName: bookName,
		DueDate:  "2030-01-01",
	}
}

// GivenAuthorExists inserts an author row for testing.
func GivenAuthorExists(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.LibraryStore,
	author librarystore.Author,
) uuid.UUID {

	id, err := store.InsertAuthor(ctx, author)
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// GivenBookExists inserts an available book row for testing.
func GivenBookExists(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.LibraryStore,
	book librarystore.Book,
) uuid.UUID {

	id, err := store.InsertBook(ctx, book)
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// GivenMemberExists inserts a member row for testing.
func GivenMemberExists(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.LibraryStore,
	member librarystore.Member,
) uuid.UUID {

	id, err := store.InsertMember(ctx, member)
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// GivenBookWasRented performs a rental for testing and asserts it succeeded.
func GivenBookWasRented(
	t testing.TB,
	ctx context.Context, //nolint:revive
	store *postgresengine.LibraryStore,
	rental librarystore.RentalRequest,
) {

	err := store.RentBook(ctx, rental)
	assert.NoError(t, err, "error in arranging test data")
}
