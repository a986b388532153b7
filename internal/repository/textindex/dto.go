package textindex

import (
	"github.com/kailas-cloud/movieidx/internal/db"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
)

// toDefinition renders the domain index for the configured layout.
func (r *Repo) toDefinition(idx domidx.Index) (*db.IndexDefinition, error) {
	b := db.NewIndex(idx.Name()).
		In(r.layout.Collection).
		OnJSON().
		Language(idx.DefaultLanguage()).
		LanguageOverride(idx.LanguageOverride())
	if r.layout.KeyPrefix != "" {
		b = b.Prefix(r.layout.KeyPrefix)
	}
	for _, f := range idx.Fields() {
		b = b.Text(f.Path(), f.JSONPath(), f.Alias(), f.Weight())
	}
	return b.Build()
}

// indexFromDefinition hydrates a domain index from the live definition.
// Backends that omit language settings report the store defaults; fields
// stored without an explicit weight carry the default weight.
func indexFromDefinition(def *db.IndexDefinition) domidx.Index {
	fields := make([]domidx.Field, 0, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Type != db.IndexFieldText {
			continue
		}
		w := f.Weight
		if w <= 0 {
			w = domidx.MinWeight
		}
		fields = append(fields, domidx.ReconstructField(f.Path, w))
	}

	lang := def.DefaultLanguage
	if lang == "" {
		lang = domidx.DefaultLanguage
	}
	override := def.LanguageOverride
	if override == "" {
		override = domidx.DefaultLanguageOverride
	}

	return domidx.Reconstruct(def.Name, fields, lang, override)
}
