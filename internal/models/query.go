package models

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Suggest enables "did you mean" spelling suggestions for query terms
	// that match nothing in the index.
	Suggest bool `json:"suggest,omitempty"`
}

// Normalize clamps the limit into [1, maxLimit], applying defaultLimit when
// the caller left it unset. Emptiness of the query itself is checked by the
// engine after tokenization, so that whitespace- and punctuation-only
// queries are rejected the same way as "".
func (q *SearchQuery) Normalize(defaultLimit, maxLimit int) {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
}
