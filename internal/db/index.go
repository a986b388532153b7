package db

import (
	"errors"
	"strconv"
)

// StorageType defines the document storage backend for FT indexes (HASH or JSON).
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON stores documents as JSON.
	StorageJSON StorageType = "JSON"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldText is a weighted full-text field.
	IndexFieldText IndexFieldType = iota
	// IndexFieldTag is an exact-match tag field.
	IndexFieldTag
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldText:
		return "TEXT"
	case IndexFieldTag:
		return "TAG"
	case IndexFieldNumeric:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}

// IndexField describes a single field in an index schema.
type IndexField struct {
	Path     string // dotted document path, e.g. cast.name
	JSONPath string // JSONPath for JSON storage, e.g. $.cast[*].name
	Alias    string // AS alias in FT.CREATE SCHEMA
	Type     IndexFieldType
	Weight   int
}

// IndexDefinition is a complete index definition.
type IndexDefinition struct {
	Name             string
	Collection       string
	StorageType      StorageType
	Prefixes         []string
	Fields           []IndexField
	DefaultLanguage  string
	LanguageOverride string
}

// Ref returns the address of the index.
func (idx *IndexDefinition) Ref() IndexRef {
	return IndexRef{Collection: idx.Collection, Name: idx.Name}
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return errors.New("field path is required at index " + strconv.Itoa(i))
		}
		if seen[f.Path] {
			return errors.New("duplicate field path: " + f.Path)
		}
		seen[f.Path] = true

		if f.Type == IndexFieldText && f.Weight < 0 {
			return errors.New("negative weight for field " + f.Path)
		}
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:.-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-' || r == '.'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
