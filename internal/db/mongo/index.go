package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kailas-cloud/movieidx/internal/db"
)

// indexSpec is one entry of the listIndexes reply.
type indexSpec struct {
	Name             string `bson:"name"`
	Key              bson.D `bson:"key"`
	Weights          bson.D `bson:"weights,omitempty"`
	DefaultLanguage  string `bson:"default_language,omitempty"`
	LanguageOverride string `bson:"language_override,omitempty"`
}

// isText reports whether the spec describes a text index. The server stores
// text keys as {_fts: "text", _ftsx: 1}.
func (s *indexSpec) isText() bool {
	for _, e := range s.Key {
		if e.Key == "_fts" {
			return true
		}
		if v, ok := e.Value.(string); ok && v == "text" {
			return true
		}
	}
	return false
}

// CreateIndex creates a text index on the definition's collection. Mongo
// treats an identical re-creation as a no-op; a differing one is refused
// with ErrIndexConflict.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	for i := range def.Fields {
		if def.Fields[i].Type != db.IndexFieldText {
			return fmt.Errorf("field %s: only TEXT fields are supported", def.Fields[i].Path)
		}
	}
	coll, err := s.collection(def.Collection)
	if err != nil {
		return err
	}

	model := mongo.IndexModel{
		Keys:    textKeys(def),
		Options: indexOptions(def),
	}
	if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
		if hasCode(err, codeIndexOptionsConflict, codeIndexKeySpecConflict) {
			return fmt.Errorf("%w: %s", db.ErrIndexConflict, serverMessage(err))
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex drops a named index from the collection.
func (s *Store) DropIndex(ctx context.Context, ref db.IndexRef) error {
	coll, err := s.collection(ref.Collection)
	if err != nil {
		return err
	}
	if err := coll.Indexes().DropOne(ctx, ref.Name); err != nil {
		if hasCode(err, codeIndexNotFound, codeNamespaceNotFound) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// DescribeIndex returns the text index named by ref. A collection holds at
// most one text index, so when no index carries that name the collection's
// text index is returned under its own name.
func (s *Store) DescribeIndex(ctx context.Context, ref db.IndexRef) (*db.IndexDefinition, error) {
	coll, err := s.collection(ref.Collection)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		if hasCode(err, codeNamespaceNotFound) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpDescribeIndex, Err: err}
	}
	defer func() { _ = cursor.Close(ctx) }()

	var specs []indexSpec
	if err := cursor.All(ctx, &specs); err != nil {
		return nil, &db.Error{Op: db.OpDescribeIndex, Err: err}
	}

	spec := pickTextIndex(specs, ref.Name)
	if spec == nil {
		return nil, db.ErrIndexNotFound
	}

	def, err := definitionFromSpec(spec)
	if err != nil {
		return nil, &db.Error{Op: db.OpDescribeIndex, Err: err}
	}
	def.Collection = ref.Collection
	return def, nil
}

func pickTextIndex(specs []indexSpec, name string) *indexSpec {
	var text *indexSpec
	for i := range specs {
		if !specs[i].isText() {
			continue
		}
		if specs[i].Name == name {
			return &specs[i]
		}
		if text == nil {
			text = &specs[i]
		}
	}
	return text
}

// textKeys renders {path: "text", ...} in field order.
func textKeys(def *db.IndexDefinition) bson.D {
	keys := make(bson.D, 0, len(def.Fields))
	for i := range def.Fields {
		keys = append(keys, bson.E{Key: def.Fields[i].Path, Value: "text"})
	}
	return keys
}

// textWeights renders {path: weight, ...}. Fields without an explicit weight
// are left to the server default of 1.
func textWeights(def *db.IndexDefinition) bson.D {
	weights := make(bson.D, 0, len(def.Fields))
	for i := range def.Fields {
		if def.Fields[i].Weight <= 0 {
			continue
		}
		weights = append(weights, bson.E{Key: def.Fields[i].Path, Value: int32(def.Fields[i].Weight)})
	}
	return weights
}

func indexOptions(def *db.IndexDefinition) *options.IndexOptionsBuilder {
	opts := options.Index().SetName(def.Name)
	if w := textWeights(def); len(w) > 0 {
		opts = opts.SetWeights(w)
	}
	if def.DefaultLanguage != "" {
		opts = opts.SetDefaultLanguage(def.DefaultLanguage)
	}
	if def.LanguageOverride != "" {
		opts = opts.SetLanguageOverride(def.LanguageOverride)
	}
	return opts
}

// definitionFromSpec converts a listIndexes text entry back into a definition.
// Field paths come from the weights document: the key document only holds
// the _fts/_ftsx placeholders.
func definitionFromSpec(spec *indexSpec) (*db.IndexDefinition, error) {
	def := &db.IndexDefinition{
		Name:             spec.Name,
		StorageType:      db.StorageJSON,
		DefaultLanguage:  spec.DefaultLanguage,
		LanguageOverride: spec.LanguageOverride,
	}
	for _, e := range spec.Weights {
		w, err := weightValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("weight of %s: %w", e.Key, err)
		}
		def.Fields = append(def.Fields, db.IndexField{
			Path:   e.Key,
			Type:   db.IndexFieldText,
			Weight: w,
		})
	}
	return def, nil
}

func weightValue(v any) (int, error) {
	switch n := v.(type) {
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integer weight %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected weight type %T", v)
	}
}

func serverMessage(err error) string {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}
