package db

import (
	"strconv"
	"strings"
)

// IndexBuilder is a fluent builder for index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{
		def: IndexDefinition{
			Name:        name,
			StorageType: StorageJSON,
		},
	}
}

// In sets the document collection the index belongs to.
func (b *IndexBuilder) In(collection string) *IndexBuilder {
	b.def.Collection = collection
	return b
}

// OnJSON sets the index storage type to JSON.
func (b *IndexBuilder) OnJSON() *IndexBuilder {
	b.def.StorageType = StorageJSON
	return b
}

// OnHash sets the index storage type to HASH.
func (b *IndexBuilder) OnHash() *IndexBuilder {
	b.def.StorageType = StorageHash
	return b
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Language sets the default stemming language.
func (b *IndexBuilder) Language(lang string) *IndexBuilder {
	b.def.DefaultLanguage = lang
	return b
}

// LanguageOverride sets the per-document language field.
func (b *IndexBuilder) LanguageOverride(field string) *IndexBuilder {
	b.def.LanguageOverride = field
	return b
}

// Text adds a weighted TEXT field. jsonPath and alias may be empty.
func (b *IndexBuilder) Text(path, jsonPath, alias string, weight int) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Path:     path,
		JSONPath: jsonPath,
		Alias:    alias,
		Type:     IndexFieldText,
		Weight:   weight,
	})
	return b
}

// Tag adds a TAG field to the index.
func (b *IndexBuilder) Tag(path string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Path: path,
		Type: IndexFieldTag,
	})
	return b
}

// Numeric adds a NUMERIC field to the index.
func (b *IndexBuilder) Numeric(path string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Path: path,
		Type: IndexFieldNumeric,
	})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	return &b.def, nil
}

// MustBuild calls Build and panics on error.
func (b *IndexBuilder) MustBuild() *IndexDefinition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// String returns a debug representation: "<name> ON <collection> {path:weight ...}".
func (idx *IndexDefinition) String() string {
	parts := []string{idx.Name}
	if idx.Collection != "" {
		parts = append(parts, "ON", idx.Collection)
	}
	if len(idx.Prefixes) > 0 {
		parts = append(parts, "PREFIX")
		parts = append(parts, idx.Prefixes...)
	}
	fields := make([]string, 0, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		s := f.Path + ":" + f.Type.String()
		if f.Type == IndexFieldText && f.Weight > 0 {
			s += ":" + strconv.Itoa(f.Weight)
		}
		fields = append(fields, s)
	}
	parts = append(parts, "{"+strings.Join(fields, " ")+"}")
	return strings.Join(parts, " ")
}
