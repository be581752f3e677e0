package models

// SearchResponse is the result of a search, ordered by decreasing similarity.
// Similarity scores are not exposed.
type SearchResponse struct {
	Query     string      `json:"query"`
	Results   []*Bookmark `json:"results"`
	Total     int         `json:"total"`
	QueryTime int64       `json:"query_time_ms"`
}
