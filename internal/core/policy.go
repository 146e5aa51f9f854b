package core

// policy.go declares how each source column is coerced and what happens when
// coercion fails. The per-entity tables live in entities.go; sanitize.go runs them.
//
// A FieldSpec is applied in this order:
//  1. Missing-value check (see IsMissing)
//  2. Normalizer on the raw text
//  3. Type coercion
//  4. OnFailure policy if 1 or 3 failed
//  5. Check on the resulting valid value; a failed check always drops the row

import (
	"fmt"
	"strconv"
	"time"
)

// FieldType is the target type of a coerced column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldNumber
	FieldTimestamp
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldInt:
		return "int"
	case FieldNumber:
		return "number"
	case FieldTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// FailurePolicy decides what a missing or unparseable value becomes.
type FailurePolicy int

const (
	// KeepNull retains the row with an invalid (null) value.
	KeepNull FailurePolicy = iota
	// UseFallback retains the row with FieldSpec.Fallback.
	UseFallback
	// DropRow removes the whole row.
	DropRow
)

func (p FailurePolicy) String() string {
	switch p {
	case KeepNull:
		return "keep-null"
	case UseFallback:
		return "fallback"
	case DropRow:
		return "drop-row"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// Value is one coerced cell. Only the member matching the field's type is set.
type Value struct {
	Text  string
	Int   int64
	Num   float64
	Time  time.Time
	Valid bool
}

// TextValue, IntValue and NumberValue build valid values for fallbacks.
func TextValue(s string) Value    { return Value{Text: s, Valid: true} }
func IntValue(i int64) Value      { return Value{Int: i, Valid: true} }
func NumberValue(f float64) Value { return Value{Num: f, Valid: true} }

// Check is a post-coercion predicate. A false result drops the row.
type Check struct {
	Name string
	Fn   func(Value) bool
}

var (
	NonNegative = Check{Name: ">= 0", Fn: func(v Value) bool { return v.Num >= 0 && v.Int >= 0 }}
	Positive    = Check{Name: "> 0", Fn: func(v Value) bool { return v.Num > 0 || v.Int > 0 }}
)

// FieldSpec is the coercion policy for one column of an entity.
type FieldSpec struct {
	Name       string              // Field name inside the entity
	Source     string              // Source column header (matched case-insensitively)
	Type       FieldType           // Target type
	OnFailure  FailurePolicy       // What a missing/unparseable value becomes
	Fallback   Value               // Used when OnFailure is UseFallback
	Normalizer func(string) string // Optional transformation of the raw text before coercion
	Checks     []Check             // Predicates on the coerced value
}

// EntityDefinition declares one logical entity reconstructed from the source.
type EntityDefinition struct {
	Entity Entity
	Label  string
	Order  int // position in the pipeline, used for stable listing
	Fields []FieldSpec
}

// Columns returns the source columns projected for this entity.
func (d EntityDefinition) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Source
	}
	return cols
}

// FieldIndex returns the position of a field by name, or -1.
func (d EntityDefinition) FieldIndex(name string) int {
	for i, f := range d.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// coerce converts one raw cell according to spec. It reports drop=true when
// the row must be removed.
func coerce(spec FieldSpec, raw string) (v Value, drop bool) {
	if !IsMissing(raw) {
		s := raw
		if spec.Normalizer != nil {
			s = spec.Normalizer(s)
		}
		v = parseAs(spec.Type, s)
	}

	if !v.Valid {
		switch spec.OnFailure {
		case DropRow:
			return Value{}, true
		case UseFallback:
			v = spec.Fallback
		}
	}

	if v.Valid {
		for _, c := range spec.Checks {
			if !c.Fn(v) {
				return Value{}, true
			}
		}
	}
	return v, false
}

func parseAs(t FieldType, s string) Value {
	switch t {
	case FieldInt:
		if i, ok := ParseInt(s); ok {
			return IntValue(i)
		}
	case FieldNumber:
		if f, ok := ParseNumber(s); ok {
			return NumberValue(f)
		}
	case FieldTimestamp:
		if ts, ok := ParseTimestamp(s); ok {
			return Value{Time: ts, Valid: true}
		}
	default:
		if txt, ok := ParseText(s); ok {
			return TextValue(txt)
		}
	}
	return Value{}
}

// Describe renders a value for policy listings and previews.
func (v Value) Describe(t FieldType) string {
	if !v.Valid {
		return "null"
	}
	switch t {
	case FieldInt:
		return strconv.FormatInt(v.Int, 10)
	case FieldNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FieldTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return strconv.Quote(v.Text)
	}
}
