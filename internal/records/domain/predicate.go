package domain

// Op identifies the comparison kind of a query predicate.
type Op string

const (
	OpEquals Op = "equals"
	OpIn     Op = "in"
	OpRange  Op = "range"
)

// Predicate is a plaintext query condition on a single field. Predicates are
// rewritten into ciphertext search terms before reaching the store; the store
// never sees the plaintext literals.
type Predicate struct {
	Field  string
	Op     Op
	Values []any // equality literals (one for Equals, many for In)
	Low    any   // inclusive lower bound, nil for unbounded
	High   any   // inclusive upper bound, nil for unbounded
}

// Equals matches records whose field equals value.
func Equals(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEquals, Values: []any{value}}
}

// In matches records whose field equals any of the given values.
func In(field string, values ...any) Predicate {
	return Predicate{Field: field, Op: OpIn, Values: values}
}

// Range matches records whose field falls within [low, high]. Either bound
// may be nil for a half-open range.
func Range(field string, low, high any) Predicate {
	return Predicate{Field: field, Op: OpRange, Low: low, High: high}
}

// SearchTerm is the ciphertext form of a predicate under one field key
// version. Equality terms carry the encrypted literals; range terms carry
// encoded bounds whose byte order matches plaintext order.
type SearchTerm struct {
	KeyVersion uint
	Equals     [][]byte
	Low        []byte
	High       []byte
}

// StorePredicate is a rewritten predicate ready for index lookup. It carries
// one term per field key version, so matches written before a key rotation
// are still found.
type StorePredicate struct {
	EntityType string
	Field      string
	Terms      []SearchTerm
}
