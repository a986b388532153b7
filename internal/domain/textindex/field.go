package textindex

import (
	"fmt"
	"strings"
)

// Weight bounds accepted by the document store for text index fields.
const (
	MinWeight = 1
	MaxWeight = 99999
)

const arrayMarker = "[]"

// Field is an immutable value object: one document path participating in the
// text index together with its relevance weight.
//
// Paths use dotted notation with "[]" marking array segments, e.g. "cast[].name"
// for the name of every cast member or "genres[]" for an array of strings.
type Field struct {
	notation string
	weight   int
}

// NewField validates and creates a Field.
func NewField(notation string, weight int) (Field, error) {
	if notation == "" {
		return Field{}, fmt.Errorf("field path is required")
	}
	if len(notation) > 256 {
		return Field{}, fmt.Errorf("field path %q too long (max 256)", notation)
	}
	for _, seg := range strings.Split(notation, ".") {
		if err := validateSegment(strings.TrimSuffix(seg, arrayMarker)); err != nil {
			return Field{}, fmt.Errorf("field path %q: %w", notation, err)
		}
	}
	if weight < MinWeight || weight > MaxWeight {
		return Field{}, fmt.Errorf("weight %d for %q out of range [%d, %d]", weight, notation, MinWeight, MaxWeight)
	}
	return Field{notation: notation, weight: weight}, nil
}

// MustField is NewField that panics on error. Intended for static definitions.
func MustField(notation string, weight int) Field {
	f, err := NewField(notation, weight)
	if err != nil {
		panic(err)
	}
	return f
}

// ReconstructField creates a Field without validation (storage hydration).
func ReconstructField(path string, weight int) Field {
	return Field{notation: path, weight: weight}
}

func validateSegment(seg string) error {
	if seg == "" {
		return fmt.Errorf("empty path segment")
	}
	if strings.HasPrefix(seg, "$") {
		return fmt.Errorf("segment %q must not start with '$'", seg)
	}
	for i, r := range seg {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if i == 0 && isDigit {
			return fmt.Errorf("segment %q must not start with a digit", seg)
		}
		if !isAlpha && !isDigit && r != '_' {
			return fmt.Errorf("segment %q contains invalid character %q", seg, r)
		}
	}
	return nil
}

// Notation returns the path as declared, including array markers.
func (f Field) Notation() string { return f.notation }

// Path returns the dotted document path ("cast.name").
func (f Field) Path() string { return strings.ReplaceAll(f.notation, arrayMarker, "") }

// JSONPath returns the JSONPath form ("$.cast[*].name").
func (f Field) JSONPath() string {
	return "$." + strings.ReplaceAll(f.notation, arrayMarker, "[*]")
}

// Alias returns a flat identifier for backends that cannot address nested paths ("cast_name").
func (f Field) Alias() string { return strings.ReplaceAll(f.Path(), ".", "_") }

// Weight returns the relevance weight.
func (f Field) Weight() int { return f.weight }

func (f Field) String() string { return fmt.Sprintf("%s:%d", f.Path(), f.weight) }
