package models

import "strings"

// Search limits applied when the caller does not configure them.
const (
	DefaultSearchLimit = 15
	MinSearchLimit     = 1
	MaxSearchLimit     = 15
)

// SearchQuery is a semantic search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Normalize trims the query and clamps the limit into [minLimit, maxLimit], using defaultLimit
// when the limit is unset. It returns false when there is nothing to search for.
func (q *SearchQuery) Normalize(defaultLimit, minLimit, maxLimit int) bool {
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit < minLimit {
		q.Limit = minLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q.Query != ""
}
