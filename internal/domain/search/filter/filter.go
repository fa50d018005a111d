package filter

import (
	"fmt"
	"strings"
)

// Op is the comparison operator of a predicate.
type Op string

const (
	// OpNone matches every record.
	OpNone Op = ""
	// OpContains matches records whose field contains the value (case-insensitive).
	OpContains Op = "contains"
)

// Predicate is a single declarative filter condition, or the empty filter.
// Exactly one predicate is active on a result set at a time.
type Predicate struct {
	op    Op
	field string
	value string
	// separator splits list fields into values; empty means the field is one value.
	separator string
}

// Empty returns the predicate that lets every record through.
func Empty() Predicate { return Predicate{} }

// Contains creates a substring predicate on a field.
func Contains(field, value string) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("contains value is required for field %q", field)
	}
	return Predicate{op: OpContains, field: field, value: value}, nil
}

// ContainsAny creates a substring predicate on a field holding a separated list.
// A record matches when any trimmed list value contains the text.
func ContainsAny(field, separator, value string) (Predicate, error) {
	p, err := Contains(field, value)
	if err != nil {
		return Predicate{}, err
	}
	p.separator = separator
	return p, nil
}

// Op returns the operator.
func (p Predicate) Op() Op { return p.op }

// Field returns the target field name.
func (p Predicate) Field() string { return p.field }

// Value returns the comparison value.
func (p Predicate) Value() string { return p.value }

// Separator returns the list separator of the field, or "" for single-valued fields.
func (p Predicate) Separator() string { return p.separator }

// IsEmpty reports whether the predicate is the no-op filter.
func (p Predicate) IsEmpty() bool { return p.op == OpNone }

// Matches evaluates the predicate against a record's string fields.
func (p Predicate) Matches(fields map[string]string) bool {
	if p.IsEmpty() {
		return true
	}
	raw, ok := fields[p.field]
	if !ok {
		return false
	}
	needle := strings.ToLower(p.value)
	if p.separator == "" {
		return strings.Contains(strings.ToLower(raw), needle)
	}
	for _, v := range strings.Split(raw, p.separator) {
		if strings.Contains(strings.ToLower(strings.TrimSpace(v)), needle) {
			return true
		}
	}
	return false
}

// String renders the predicate for logs.
func (p Predicate) String() string {
	if p.IsEmpty() {
		return "<none>"
	}
	return fmt.Sprintf("%s(%s, %q)", p.op, p.field, p.value)
}
