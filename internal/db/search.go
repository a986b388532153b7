package db

import (
	"fmt"
	"strconv"
	"strings"
)

// TextQuery is the input for a relevance-ranked keyword search.
type TextQuery struct {
	Ref          IndexRef
	Query        string
	Limit        int
	ReturnFields []string // dotted document paths
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
	// Summary is a one-line description, set by backends that decode the
	// full document.
	Summary string
}

// FlattenFields picks dotted paths out of a decoded JSON document and renders
// each as a string. Arrays are walked element-wise and joined with ", ".
// Missing paths are omitted.
func FlattenFields(doc map[string]any, paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		vals := lookup(doc, strings.Split(p, "."))
		if len(vals) == 0 {
			continue
		}
		out[p] = strings.Join(vals, ", ")
	}
	return out
}

func lookup(v any, segs []string) []string {
	if len(segs) == 0 {
		return scalars(v)
	}
	switch t := v.(type) {
	case map[string]any:
		next, ok := t[segs[0]]
		if !ok {
			return nil
		}
		return lookup(next, segs[1:])
	case []any:
		var out []string
		for _, el := range t {
			out = append(out, lookup(el, segs)...)
		}
		return out
	default:
		return nil
	}
}

func scalars(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(t)}
	case []any:
		var out []string
		for _, el := range t {
			out = append(out, scalars(el)...)
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
