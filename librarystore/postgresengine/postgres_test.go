package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfkeeper/library-store-go/librarystore"
	. "github.com/shelfkeeper/library-store-go/testutil/postgresengine/helper"                 //nolint:revive
	. "github.com/shelfkeeper/library-store-go/testutil/postgresengine/helper/postgreswrapper" //nolint:revive
)

func Test_QueryAuthors_With_EmptyQuery_ReturnsAllAuthors(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("George Orwell"))
	GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("Aldous Huxley"))
	GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("Ray Bradbury"))

	// act
	authors, err := store.QueryAuthors(ctxWithTimeout, librarystore.AuthorQuery{})

	// assert
	assert.NoError(t, err, "error in querying authors")
	assert.Len(t, authors, 3, "an empty query should return every author")
}

func Test_QueryAuthors_With_SingleFieldFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenAuthorExists(t, ctxWithTimeout, store, librarystore.Author{
		Name: "George Orwell", Country: "United Kingdom", BirthDate: "1903-06-25",
	})
	GivenAuthorExists(t, ctxWithTimeout, store, librarystore.Author{
		Name: "Stanisław Lem", Country: "Poland", BirthDate: "1921-09-12",
	})

	// act
	authors, err := store.QueryAuthors(ctxWithTimeout, librarystore.AuthorQuery{
		Country: librarystore.Set("Poland"),
	})

	// assert
	assert.NoError(t, err, "error in querying authors")
	assert.Len(t, authors, 1)
	assert.Equal(t, "Stanisław Lem", authors[0].Name)
}

func Test_QueryAuthors_With_MultipleFieldFilters(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenAuthorExists(t, ctxWithTimeout, store, librarystore.Author{
		Name: "George Orwell", Country: "United Kingdom", BirthDate: "1903-06-25",
	})
	GivenAuthorExists(t, ctxWithTimeout, store, librarystore.Author{
		Name: "Mary Shelley", Country: "United Kingdom", BirthDate: "1797-08-30",
	})

	// act
	authors, err := store.QueryAuthors(ctxWithTimeout, librarystore.AuthorQuery{
		Name:    librarystore.Set("Mary Shelley"),
		Country: librarystore.Set("United Kingdom"),
	})

	// assert
	assert.NoError(t, err, "error in querying authors")
	assert.Len(t, authors, 1)
	assert.Equal(t, "1797-08-30", authors[0].BirthDate)
}

func Test_QueryAuthors_When_NothingMatches_ReturnsNotFound(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("George Orwell"))

	// act
	authors, err := store.QueryAuthors(ctxWithTimeout, librarystore.AuthorQuery{
		Name: librarystore.Set("No Such Author"),
	})

	// assert
	assert.ErrorIs(t, err, librarystore.ErrNotFound)
	assert.Empty(t, authors)
}

func Test_QueryBooks_With_StatusFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, librarystore.Book{
		Name:     "Animal Farm",
		Year:     1945,
		Category: "Satire",
		Status:   librarystore.StatusNotAvailable,
		Author:   "George Orwell",
	})

	// act
	books, err := store.QueryBooks(ctxWithTimeout, librarystore.BookQuery{
		Status: librarystore.Set(librarystore.StatusAvailable),
	})

	// assert
	assert.NoError(t, err, "error in querying books")
	assert.Len(t, books, 1)
	assert.Equal(t, "1984", books[0].Name)
	assert.Equal(t, librarystore.StatusAvailable, books[0].Status)
}

func Test_QueryBooks_With_AuthorAndCategoryFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("Brave New World", "Aldous Huxley"))
	GivenBookExists(t, ctxWithTimeout, store, librarystore.Book{
		Name:     "Homage to Catalonia",
		Year:     1938,
		Category: "Memoir",
		Status:   librarystore.StatusAvailable,
		Author:   "George Orwell",
	})

	// act
	books, err := store.QueryBooks(ctxWithTimeout, librarystore.BookQuery{
		Author:   librarystore.Set("George Orwell"),
		Category: librarystore.Set("Dystopian"),
	})

	// assert
	assert.NoError(t, err, "error in querying books")
	assert.Len(t, books, 1)
	assert.Equal(t, "1984", books[0].Name)
}

func Test_QueryBooks_With_YearFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, librarystore.Book{
		Name:     "Fahrenheit 451",
		Year:     1953,
		Category: "Dystopian",
		Status:   librarystore.StatusAvailable,
		Author:   "Ray Bradbury",
	})

	// act
	books, err := store.QueryBooks(ctxWithTimeout, librarystore.BookQuery{
		Year: librarystore.Set(1953),
	})

	// assert
	assert.NoError(t, err, "error in querying books")
	assert.Len(t, books, 1)
	assert.Equal(t, "Fahrenheit 451", books[0].Name)
}

func Test_QueryMembers_ReturnsJoinedRentalRows(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("750321-1234", "Ingrid Bergman"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("750321-1234", "1984"))

	// act
	members, err := store.QueryMembers(ctxWithTimeout, librarystore.MemberQuery{})

	// assert
	assert.NoError(t, err, "error in querying members")
	assert.Len(t, members, 1)
	assert.Equal(t, "750321-1234", members[0].NationID)
	assert.Equal(t, "Ingrid Bergman", members[0].UserName)
	assert.Equal(t, "1984", members[0].BookName)
}

func Test_QueryMembers_With_UserNameFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("750321-1234", "Ingrid Bergman"))
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("820114-5678", "Max von Sydow"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("Brave New World", "Aldous Huxley"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("750321-1234", "1984"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("820114-5678", "Brave New World"))

	// act
	members, err := store.QueryMembers(ctxWithTimeout, librarystore.MemberQuery{
		UserName: librarystore.Set("Max von Sydow"),
	})

	// assert
	assert.NoError(t, err, "error in querying members")
	assert.Len(t, members, 1)
	assert.Equal(t, "820114-5678", members[0].NationID)
	assert.Equal(t, "Brave New World", members[0].BookName)
}

func Test_QueryMembers_With_BookNameFilter(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("750321-1234", "Ingrid Bergman"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("Brave New World", "Aldous Huxley"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("750321-1234", "1984"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("750321-1234", "Brave New World"))

	// act
	members, err := store.QueryMembers(ctxWithTimeout, librarystore.MemberQuery{
		BookName: librarystore.Set("1984"),
	})

	// assert
	assert.NoError(t, err, "error in querying members")
	assert.Len(t, members, 1)
	assert.Equal(t, "Ingrid Bergman", members[0].UserName)
}

func Test_QueryMembers_When_MemberHasNoRentals_ReturnsNotFound(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("750321-1234", "Ingrid Bergman"))

	// act
	members, err := store.QueryMembers(ctxWithTimeout, librarystore.MemberQuery{})

	// assert
	assert.ErrorIs(t, err, librarystore.ErrNotFound, "a member without rentals should not appear in the join")
	assert.Empty(t, members)
}

func Test_GetAuthor_ReturnsDetailWithBooks(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	authorID := GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("Animal Farm", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("Brave New World", "Aldous Huxley"))

	// act
	detail, err := store.GetAuthor(ctxWithTimeout, authorID)

	// assert
	assert.NoError(t, err, "error in getting the author")
	assert.Equal(t, "George Orwell", detail.Name)
	assert.Equal(t, "United Kingdom", detail.Country)
	assert.ElementsMatch(t, []string{"1984", "Animal Farm"}, detail.Books,
		"only books referencing the author by name should be aggregated")
}

func Test_GetAuthor_WithoutBooks_ReturnsEmptyBookList(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	authorID := GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("George Orwell"))

	// act
	detail, err := store.GetAuthor(ctxWithTimeout, authorID)

	// assert
	assert.NoError(t, err, "error in getting the author")
	assert.NotNil(t, detail.Books, "the book list should be empty, not nil")
	assert.Empty(t, detail.Books)
}

func Test_GetAuthor_When_AuthorDoesNotExist_ReturnsNotFound(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)

	// act
	_, err := store.GetAuthor(ctxWithTimeout, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, librarystore.ErrNotFound)
}

func Test_GetBook_ReturnsTheBook(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	bookID := GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))

	// act
	book, err := store.GetBook(ctxWithTimeout, bookID)

	// assert
	assert.NoError(t, err, "error in getting the book")
	assert.Equal(t, "1984", book.Name)
	assert.Equal(t, 1949, book.Year)
	assert.Equal(t, "Dystopian", book.Category)
	assert.Equal(t, librarystore.StatusAvailable, book.Status)
	assert.Equal(t, "George Orwell", book.Author)
}

func Test_GetBook_When_BookDoesNotExist_ReturnsNotFound(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)

	// act
	_, err := store.GetBook(ctxWithTimeout, GivenUniqueID(t))

	// assert
	assert.ErrorIs(t, err, librarystore.ErrNotFound)
}

func Test_GetMemberHistory_ReturnsAllRentals(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("750321-1234", "Ingrid Bergman"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("1984", "George Orwell"))
	GivenBookExists(t, ctxWithTimeout, store, FixtureBook("Animal Farm", "George Orwell"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("750321-1234", "1984"))
	GivenBookWasRented(t, ctxWithTimeout, store, FixtureRentalRequest("750321-1234", "Animal Farm"))

	// act
	history, err := store.GetMemberHistory(ctxWithTimeout, "750321-1234")

	// assert
	assert.NoError(t, err, "error in getting the member history")
	assert.Len(t, history, 2)

	for _, row := range history {
		assert.Equal(t, "Ingrid Bergman", row.Name)
		assert.Equal(t, "750321-1234", row.NationID)
		assert.Equal(t, "2030-01-01", row.DueDate)
	}
}

func Test_GetMemberHistory_When_MemberHasNoHistory_ReturnsNotFound(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)
	GivenMemberExists(t, ctxWithTimeout, store, FixtureMember("750321-1234", "Ingrid Bergman"))

	// act
	history, err := store.GetMemberHistory(ctxWithTimeout, "750321-1234")

	// assert
	assert.ErrorIs(t, err, librarystore.ErrNotFound)
	assert.Empty(t, history)
}

func Test_InsertBook_With_ZeroStatus_DefaultsToAvailable(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)

	// act
	bookID, err := store.InsertBook(ctxWithTimeout, librarystore.Book{
		Name:     "1984",
		Year:     1949,
		Category: "Dystopian",
		Author:   "George Orwell",
	})

	// assert
	assert.NoError(t, err, "error in inserting the book")
	book, getErr := store.GetBook(ctxWithTimeout, bookID)
	assert.NoError(t, getErr, "error in getting the book back")
	assert.Equal(t, librarystore.StatusAvailable, book.Status)
}

func Test_InsertBook_With_UnknownStatus_ReturnsError(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)

	// act
	_, err := store.InsertBook(ctxWithTimeout, librarystore.Book{
		Name:     "1984",
		Year:     1949,
		Category: "Dystopian",
		Status:   "Lost",
		Author:   "George Orwell",
	})

	// assert
	assert.ErrorIs(t, err, librarystore.ErrInvalidBookStatus)
}

func Test_InsertAuthor_ReturnsDistinctIdentifiers(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	store := wrapper.GetLibraryStore()
	CreateSchema(t, wrapper)

	// arrange
	CleanUp(t, wrapper)

	// act
	firstID := GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("George Orwell"))
	secondID := GivenAuthorExists(t, ctxWithTimeout, store, FixtureAuthor("Aldous Huxley"))

	// assert
	assert.NotEqual(t, firstID, secondID, "each insert should generate its own identifier")
}
