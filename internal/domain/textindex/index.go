// Package textindex holds the backend-neutral definition of a weighted
// multi-field text index and the rules for comparing two of them.
package textindex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Defaults applied by the document store when a text index omits them.
const (
	DefaultLanguage         = "english"
	DefaultLanguageOverride = "language"
)

// Index is an immutable weighted text index definition. Field order is the
// declaration order and determines the auto-generated name.
type Index struct {
	name             string
	fields           []Field
	defaultLanguage  string
	languageOverride string
}

// Option configures an Index at construction time.
type Option func(*Index)

// WithName sets an explicit index name. Empty keeps the auto-generated one.
func WithName(name string) Option {
	return func(i *Index) {
		if name != "" {
			i.name = name
		}
	}
}

// WithDefaultLanguage sets the stemming language.
func WithDefaultLanguage(lang string) Option {
	return func(i *Index) {
		if lang != "" {
			i.defaultLanguage = lang
		}
	}
}

// WithLanguageOverride sets the per-document language field name.
func WithLanguageOverride(field string) Option {
	return func(i *Index) {
		if field != "" {
			i.languageOverride = field
		}
	}
}

// New validates and creates an Index.
func New(fields []Field, opts ...Option) (Index, error) {
	if len(fields) == 0 {
		return Index{}, fmt.Errorf("at least one field is required")
	}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.notation == "" {
			return Index{}, fmt.Errorf("field path is required")
		}
		if _, dup := seen[f.Path()]; dup {
			return Index{}, fmt.Errorf("duplicate field path %q", f.Path())
		}
		seen[f.Path()] = struct{}{}
	}

	idx := Index{
		fields:           append([]Field(nil), fields...),
		defaultLanguage:  DefaultLanguage,
		languageOverride: DefaultLanguageOverride,
	}
	for _, opt := range opts {
		opt(&idx)
	}
	if idx.name == "" {
		idx.name = AutoName(idx.fields)
	}
	if err := validateLanguage(idx.defaultLanguage); err != nil {
		return Index{}, err
	}
	return idx, nil
}

// Reconstruct creates an Index without validation (storage hydration).
func Reconstruct(name string, fields []Field, defaultLanguage, languageOverride string) Index {
	return Index{
		name:             name,
		fields:           append([]Field(nil), fields...),
		defaultLanguage:  defaultLanguage,
		languageOverride: languageOverride,
	}
}

func validateLanguage(lang string) error {
	for _, r := range lang {
		if (r < 'a' || r > 'z') && r != '_' {
			return fmt.Errorf("invalid default language %q", lang)
		}
	}
	return nil
}

// AutoName returns the name the document store generates for a text index
// over fields when none is given: "<path>_text" joined by "_".
func AutoName(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Path()+"_text")
	}
	return strings.Join(parts, "_")
}

// Name returns the index name.
func (i Index) Name() string { return i.name }

// Fields returns a copy of the fields in declaration order.
func (i Index) Fields() []Field { return append([]Field(nil), i.fields...) }

// DefaultLanguage returns the stemming language.
func (i Index) DefaultLanguage() string { return i.defaultLanguage }

// LanguageOverride returns the per-document language field name.
func (i Index) LanguageOverride() string { return i.languageOverride }

// Weight returns the weight for a dotted path.
func (i Index) Weight(path string) (int, bool) {
	for _, f := range i.fields {
		if f.Path() == path {
			return f.weight, true
		}
	}
	return 0, false
}

// Weights returns the path→weight mapping.
func (i Index) Weights() map[string]int {
	m := make(map[string]int, len(i.fields))
	for _, f := range i.fields {
		m[f.Path()] = f.weight
	}
	return m
}

// ByWeight returns the fields ordered by descending weight, then by path.
func (i Index) ByWeight() []Field {
	out := i.Fields()
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].weight != out[b].weight {
			return out[a].weight > out[b].weight
		}
		return out[a].Path() < out[b].Path()
	})
	return out
}

// Checksum is a stable digest of the definition. Field order does not
// participate: the store treats weights as a mapping.
func (i Index) Checksum() string {
	paths := make([]string, 0, len(i.fields))
	weights := i.Weights()
	for p := range weights {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString(i.name)
	b.WriteString("|")
	b.WriteString(i.defaultLanguage)
	b.WriteString("|")
	b.WriteString(i.languageOverride)
	for _, p := range paths {
		b.WriteString("|")
		b.WriteString(p)
		b.WriteString("=")
		b.WriteString(strconv.Itoa(weights[p]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
