package librarystore

// Filterable fields of the book entity.
const (
	FieldBookName     FilterFieldString = "name"
	FieldBookYear     FilterFieldString = "year"
	FieldBookCategory FilterFieldString = "category"
	FieldBookStatus   FilterFieldString = "status"
	FieldBookAuthor   FilterFieldString = "author"
)

// BookStatus is the closed availability enumeration stored inline on the
// book row. The only transition this store performs is Available to Rented,
// as a side effect of a successful rental.
type BookStatus string

const (
	StatusAvailable    BookStatus = "Available"
	StatusNotAvailable BookStatus = "NotAvailable"
	StatusRented       BookStatus = "Rented"
)

// IsValid reports whether the status is one of the known enumeration values.
func (s BookStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusNotAvailable, StatusRented:
		return true
	default:
		return false
	}
}

// Book represents a book row.
//
// Author is a name reference to the author entity, not a foreign key: a book
// may name an author with no matching author row. A zero Status defaults to
// StatusAvailable at insert time.
type Book struct {
	Name     string
	Year     int
	Category string
	Status   BookStatus
	Author   string
}

// BookQuery filters books by any subset of their fields.
// A nil field imposes no constraint.
type BookQuery struct {
	Name     *string
	Year     *int
	Category *string
	Status   *BookStatus
	Author   *string
}

// Filter returns the field predicates for the set fields of the query.
func (q BookQuery) Filter() Filter {
	fb := BuildFieldFilter()

	MatchIfSet(fb, FieldBookName, q.Name)
	MatchIfSet(fb, FieldBookYear, q.Year)
	MatchIfSet(fb, FieldBookCategory, q.Category)
	MatchIfSet(fb, FieldBookStatus, q.Status)
	MatchIfSet(fb, FieldBookAuthor, q.Author)

	return fb.Finalize()
}
