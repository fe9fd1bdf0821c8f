package librarystore

import (
	"slices"
)

type FilterFieldString = string

/***** FieldPredicate *****/

// FieldPredicate is an equality predicate on one filterable field.
type FieldPredicate struct {
	field FilterFieldString
	val   any
}

// P constructs a FieldPredicate for the given field and value.
func P(field FilterFieldString, val any) FieldPredicate {
	return FieldPredicate{field: field, val: val}
}

func (fp FieldPredicate) Field() FilterFieldString {
	return fp.field
}

func (fp FieldPredicate) Val() any {
	return fp.val
}

/***** Filter *****/

// Filter is a conjunction of equality predicates over the filterable fields
// of one entity. An empty Filter imposes no constraint at all, so a query
// built from it returns every row of the entity.
type Filter struct {
	predicates []FieldPredicate
}

func (f Filter) Predicates() []FieldPredicate {
	return f.predicates
}

func (f Filter) IsEmpty() bool {
	return len(f.predicates) == 0
}

/***** FilterBuilder *****/

// FilterBuilder collects the predicates for the set fields of an entity
// query. The per-entity query types declare their filterable fields as a
// rule list against this builder, which keeps the instantiations for the
// different entities mechanically consistent.
type FilterBuilder struct {
	predicates []FieldPredicate
}

// BuildFieldFilter creates a FilterBuilder which must be finalized with Finalize().
func BuildFieldFilter() *FilterBuilder {
	return &FilterBuilder{}
}

// Matching adds one or multiple FieldPredicate(s) to the filter.
//
// It sanitizes the input:
//   - removing predicates with an empty field name
//   - removing predicates with a nil value
func (fb *FilterBuilder) Matching(predicate FieldPredicate, predicates ...FieldPredicate) *FilterBuilder {
	allPredicates := append([]FieldPredicate{predicate}, predicates...)
	allPredicates = slices.DeleteFunc(
		allPredicates,
		func(p FieldPredicate) bool {
			return len(p.field) == 0 || p.val == nil
		})

	fb.predicates = append(fb.predicates, allPredicates...)

	return fb
}

// Finalize returns the Filter, with its predicates sorted by field name and
// exact duplicates removed.
func (fb *FilterBuilder) Finalize() Filter {
	predicates := slices.Clone(fb.predicates)

	slices.SortStableFunc(
		predicates,
		func(a, b FieldPredicate) int {
			if a.field > b.field {
				return 1
			}

			if a.field < b.field {
				return -1
			}

			return 0
		})

	predicates = slices.CompactFunc(
		predicates,
		func(a, b FieldPredicate) bool {
			return a.field == b.field && a.val == b.val
		})

	return Filter{predicates: slices.Clip(predicates)}
}

// MatchIfSet adds an equality predicate for the field when val is set and is
// a no-op when it is nil. It is the single rule applied to every declared
// filterable field of the entity query types.
func MatchIfSet[T any](fb *FilterBuilder, field FilterFieldString, val *T) *FilterBuilder {
	if val == nil {
		return fb
	}

	return fb.Matching(P(field, *val))
}

// Set turns a plain value into the optional (pointer) form the query types
// use for their filterable fields.
func Set[T any](val T) *T {
	return &val
}
