package librarystore

// Filterable fields of the member/rental join.
const (
	FieldMemberUserName FilterFieldString = "user_name"
	FieldMemberBookName FilterFieldString = "book_name"
)

// Member represents a member row. NationID is the caller-supplied natural
// key used to correlate rental records with members.
type Member struct {
	NationID string
	Name     string
}

// RentalRequest is the input to the rental transaction.
//
// DueDate is an opaque date string; no calendar validation is performed.
type RentalRequest struct {
	NationID string
	BookName string
	DueDate  string
}

// MemberRentalRow is one row of the member/rental-history join returned by
// member queries.
type MemberRentalRow struct {
	NationID string
	UserName string
	BookName string
}

// RentalHistoryRow is one entry of a member's rental history, joined with
// the member's name.
type RentalHistoryRow struct {
	Name     string
	NationID string
	BookName string
	DueDate  string
}

// MemberQuery filters the member/rental-history join by any subset of its
// fields. A nil field imposes no constraint.
type MemberQuery struct {
	UserName *string
	BookName *string
}

// Filter returns the field predicates for the set fields of the query.
func (q MemberQuery) Filter() Filter {
	fb := BuildFieldFilter()

	MatchIfSet(fb, FieldMemberUserName, q.UserName)
	MatchIfSet(fb, FieldMemberBookName, q.BookName)

	return fb.Finalize()
}
