package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/movieidx/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. Indexed documents are kept.
func (s *Store) DropIndex(ctx context.Context, ref db.IndexRef) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(ref.Name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// DescribeIndex reads the index schema back via FT.INFO.
func (s *Store) DescribeIndex(ctx context.Context, ref db.IndexRef) (*db.IndexDefinition, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(ref.Name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpDescribeIndex, Err: err}
	}

	def, err := parseInfo(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpDescribeIndex, Err: err}
	}
	if def.Name == "" {
		def.Name = ref.Name
	}
	return def, nil
}

// Redis 7 says "Unknown Index name", Redis 8 says "<name>: no such index".
func isUnknownIndex(err error) bool {
	return isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index")
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if idx.Name == "" {
		return nil, errors.New("index name is required")
	}
	if !db.IsValidIdentifier(idx.Name) {
		return nil, fmt.Errorf("invalid index name %q", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{idx.Name}

	storage := idx.StorageType
	if storage == "" {
		storage = db.StorageJSON
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	// "none" disables stemming in the document store; RediSearch has no equivalent keyword.
	if idx.DefaultLanguage != "" && idx.DefaultLanguage != "none" {
		args = append(args, "LANGUAGE", idx.DefaultLanguage)
	}
	if idx.LanguageOverride != "" {
		args = append(args, "LANGUAGE_FIELD", attributePath(storage, idx.LanguageOverride, ""))
	}

	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(storage, &idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(storage db.StorageType, f *db.IndexField) ([]string, error) {
	if f.Path == "" {
		return nil, errors.New("field path is required")
	}

	args := []string{attributePath(storage, f.Path, f.JSONPath)}

	if f.Alias != "" {
		if !db.IsValidIdentifier(f.Alias) {
			return nil, fmt.Errorf("invalid alias %q for field %s", f.Alias, f.Path)
		}
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldText:
		args = append(args, "TEXT")
		if f.Weight > 0 {
			args = append(args, "WEIGHT", strconv.Itoa(f.Weight))
		}
	case db.IndexFieldTag:
		args = append(args, "TAG")
	case db.IndexFieldNumeric:
		args = append(args, "NUMERIC")
	default:
		return nil, errors.New("unknown field type")
	}

	return args, nil
}

// attributePath returns the FT.CREATE identifier: a JSONPath for JSON storage,
// the plain hash field otherwise.
func attributePath(storage db.StorageType, path, jsonPath string) string {
	if storage != db.StorageJSON {
		return path
	}
	if jsonPath != "" {
		return jsonPath
	}
	return "$." + path
}

// parseInfo decodes the RESP2 FT.INFO reply: a flat key/value array with
// nested "index_definition" and "attributes" sections.
func parseInfo(raw []rueidis.RedisMessage) (*db.IndexDefinition, error) {
	def := &db.IndexDefinition{}
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		switch key {
		case "index_name":
			def.Name, _ = raw[i+1].ToString()
		case "index_definition":
			pairs, err := raw[i+1].ToArray()
			if err != nil {
				return nil, fmt.Errorf("parse index_definition: %w", err)
			}
			parseDefinitionSection(def, pairs)
		case "attributes":
			attrs, err := raw[i+1].ToArray()
			if err != nil {
				return nil, fmt.Errorf("parse attributes: %w", err)
			}
			for _, a := range attrs {
				props, err := a.ToArray()
				if err != nil {
					return nil, fmt.Errorf("parse attribute: %w", err)
				}
				f, err := parseAttribute(props)
				if err != nil {
					return nil, err
				}
				def.Fields = append(def.Fields, f)
			}
		}
	}
	return def, nil
}

func parseDefinitionSection(def *db.IndexDefinition, pairs []rueidis.RedisMessage) {
	for j := 0; j+1 < len(pairs); j += 2 {
		k, err := pairs[j].ToString()
		if err != nil {
			continue
		}
		switch k {
		case "key_type":
			kt, _ := pairs[j+1].ToString()
			def.StorageType = db.StorageType(kt)
		case "prefixes":
			prefixes, _ := pairs[j+1].ToArray()
			for _, p := range prefixes {
				if ps, err := p.ToString(); err == nil {
					def.Prefixes = append(def.Prefixes, ps)
				}
			}
		case "default_language":
			def.DefaultLanguage, _ = pairs[j+1].ToString()
		case "language_field":
			lf, _ := pairs[j+1].ToString()
			def.LanguageOverride = strings.TrimPrefix(lf, "$.")
		}
	}
}

// parseAttribute decodes one attribute entry:
// [identifier, $.title, attribute, title, type, TEXT, WEIGHT, 10, ...].
// Flags such as SORTABLE appear as single tokens between pairs.
func parseAttribute(props []rueidis.RedisMessage) (db.IndexField, error) {
	f := db.IndexField{Type: db.IndexFieldText}
	for k := 0; k < len(props); k++ {
		name, err := props[k].ToString()
		if err != nil || k+1 >= len(props) {
			continue
		}
		switch strings.ToLower(name) {
		case "identifier":
			f.JSONPath = messageString(props[k+1])
			k++
		case "attribute":
			f.Alias = messageString(props[k+1])
			k++
		case "type":
			switch strings.ToUpper(messageString(props[k+1])) {
			case "TEXT":
				f.Type = db.IndexFieldText
			case "TAG":
				f.Type = db.IndexFieldTag
			case "NUMERIC":
				f.Type = db.IndexFieldNumeric
			}
			k++
		case "weight":
			w, err := strconv.ParseFloat(messageString(props[k+1]), 64)
			if err != nil {
				return db.IndexField{}, fmt.Errorf("parse weight of %s: %w", f.JSONPath, err)
			}
			f.Weight = int(w)
			k++
		}
	}
	f.Path = documentPath(f.JSONPath)
	return f, nil
}

func messageString(m rueidis.RedisMessage) string {
	if s, err := m.ToString(); err == nil {
		return s
	}
	if n, err := m.AsInt64(); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := m.AsFloat64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// documentPath turns "$.cast[*].name" into "cast.name".
func documentPath(identifier string) string {
	p := strings.TrimPrefix(identifier, "$.")
	p = strings.TrimPrefix(p, "$")
	return strings.ReplaceAll(p, "[*]", "")
}
