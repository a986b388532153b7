package textindex

// Hit is one document matched by a text query.
type Hit struct {
	ID      string            `json:"id"`
	Score   float64           `json:"score"`
	Summary string            `json:"summary,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// SearchResult is a ranked page of hits. Total counts every match, not only
// the returned page.
type SearchResult struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}
