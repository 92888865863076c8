package models

// SearchResult is a single ranked section hit.
type SearchResult struct {
	DocID        string `json:"doc_id"`
	SectionOrd   int    `json:"section_ord"`
	SectionTitle string `json:"section_title,omitempty"`
	Score        int    `json:"score"`
	Rank         int    `json:"rank"`
	Snippet      string `json:"snippet,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Suggestions holds "did you mean" terms for query words that matched
	// nothing. They never influence ranking.
	Suggestions []string `json:"suggestions,omitempty"`
}
