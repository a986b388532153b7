package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/movieidx/internal/db"
)

// SearchText runs a weighted full-text query via FT.SEARCH ... WITHSCORES.
// All TEXT attributes participate; per-attribute WEIGHT shapes the score.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.Ref.Name == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := []string{
		q.Ref.Name, escapeQuery(q.Query),
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw, q.ReturnFields)
}

// parseScoredResult decodes [total, key1, score1, fields1, key2, ...].
// JSON documents come back as a single "$" field holding the whole document.
func parseScoredResult(raw []rueidis.RedisMessage, returnFields []string) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		score, err := strconv.ParseFloat(messageString(raw[i+1]), 64)
		if err != nil {
			continue
		}

		pairs, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: documentFields(parseFieldPairs(pairs), returnFields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(pairs []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		k, err := pairs[j].ToString()
		if err != nil {
			continue
		}
		v, err := pairs[j+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

func documentFields(raw map[string]string, returnFields []string) map[string]string {
	doc, ok := raw["$"]
	if !ok {
		return raw
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return raw
	}
	return db.FlattenFields(m, returnFields)
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`,`, `\,`,
	`.`, `\.`,
)
