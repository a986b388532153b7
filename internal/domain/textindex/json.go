package textindex

import "encoding/json"

type fieldJSON struct {
	Path   string `json:"path"`
	Weight int    `json:"weight"`
}

type indexJSON struct {
	Name             string      `json:"name"`
	DefaultLanguage  string      `json:"default_language"`
	LanguageOverride string      `json:"language_override"`
	Fields           []fieldJSON `json:"fields"`
	Checksum         string      `json:"checksum"`
}

// MarshalJSON renders the field as {"path", "weight"}.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{Path: f.Path(), Weight: f.weight})
}

// MarshalJSON renders the definition with fields in declaration order.
func (i Index) MarshalJSON() ([]byte, error) {
	fields := make([]fieldJSON, len(i.fields))
	for n, f := range i.fields {
		fields[n] = fieldJSON{Path: f.Path(), Weight: f.weight}
	}
	return json.Marshal(indexJSON{
		Name:             i.name,
		DefaultLanguage:  i.defaultLanguage,
		LanguageOverride: i.languageOverride,
		Fields:           fields,
		Checksum:         i.Checksum(),
	})
}
