package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kailas-cloud/movieidx/internal/db"
	"github.com/kailas-cloud/movieidx/internal/domain/movie"
)

const scoreField = "score"

// SearchText runs a $text query ranked by textScore. The collection's single
// text index is used regardless of ref.Name.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, errors.New("query is required")
	}
	if q.Limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	coll, err := s.collection(q.Ref.Collection)
	if err != nil {
		return nil, err
	}

	filter := textFilter(q.Query)
	meta := bson.D{{Key: "$meta", Value: "textScore"}}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, searchError(err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	cursor, err := coll.Find(ctx, filter, options.Find().
		SetProjection(bson.D{{Key: scoreField, Value: meta}}).
		SetSort(bson.D{{Key: scoreField, Value: meta}}).
		SetLimit(int64(q.Limit)))
	if err != nil {
		return nil, searchError(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	entries := make([]db.SearchEntry, 0, q.Limit)
	for cursor.Next(ctx) {
		entry, err := decodeEntry(cursor.Current, q.ReturnFields)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		entries = append(entries, entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, searchError(err)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func textFilter(query string) bson.D {
	return bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}}
}

// A $text query without a text index fails with IndexNotFound.
func searchError(err error) error {
	if hasCode(err, codeIndexNotFound) {
		return db.ErrIndexNotFound
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}

// decodeEntry turns one result document into a SearchEntry. The document is
// round-tripped through relaxed extended JSON so FlattenFields sees plain
// maps, slices and float64 numbers. It is also decoded as a movie.Movie for
// the hit summary.
func decodeEntry(raw bson.Raw, returnFields []string) (db.SearchEntry, error) {
	entry := db.SearchEntry{Key: documentKey(raw)}
	if score, ok := raw.Lookup(scoreField).DoubleOK(); ok {
		entry.Score = score
	}

	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return db.SearchEntry{}, err
	}
	var doc map[string]any
	if err := json.Unmarshal(ext, &doc); err != nil {
		return db.SearchEntry{}, err
	}
	entry.Fields = db.FlattenFields(doc, returnFields)

	// Documents of another shape still match; they just get no summary.
	var m movie.Movie
	if err := bson.Unmarshal(raw, &m); err == nil {
		entry.Summary = m.Summary()
	}
	return entry, nil
}

func documentKey(raw bson.Raw) string {
	id := raw.Lookup("_id")
	if oid, ok := id.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := id.StringValueOK(); ok {
		return s
	}
	return id.String()
}
