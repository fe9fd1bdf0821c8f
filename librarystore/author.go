package librarystore

// Filterable fields of the author entity.
const (
	FieldAuthorName      FilterFieldString = "name"
	FieldAuthorCountry   FilterFieldString = "country"
	FieldAuthorBirthDate FilterFieldString = "birth_date"
)

// Author represents an author row. Authors are immutable after creation.
//
// BirthDate is an opaque date string, stored and compared verbatim.
type Author struct {
	Name      string
	Country   string
	BirthDate string
}

// AuthorDetail is the denormalized read model for a single author: the
// author row plus the names of all books whose author field equals the
// author's name. The relationship is by name equality, computed at read
// time, not a stored foreign key.
type AuthorDetail struct {
	Name      string
	Country   string
	BirthDate string
	Books     []string
}

// AuthorQuery filters authors by any subset of their fields.
// A nil field imposes no constraint.
type AuthorQuery struct {
	Name      *string
	Country   *string
	BirthDate *string
}

// Filter returns the field predicates for the set fields of the query.
func (q AuthorQuery) Filter() Filter {
	fb := BuildFieldFilter()

	MatchIfSet(fb, FieldAuthorName, q.Name)
	MatchIfSet(fb, FieldAuthorCountry, q.Country)
	MatchIfSet(fb, FieldAuthorBirthDate, q.BirthDate)

	return fb.Finalize()
}
