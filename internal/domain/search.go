package domain

// Search response status values
const (
	SearchStatusSuccess = "success"
	SearchStatusError   = "error"
)

// SearchFilters narrows a REST search
type SearchFilters struct {
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
}

// SearchRequest is the body of POST /search
type SearchRequest struct {
	Query     string         `json:"query" binding:"required"`
	Limit     int            `json:"limit,omitempty"`
	MaxPrice  *float64       `json:"max_price,omitempty"`
	MinRating *float64       `json:"min_rating,omitempty"`
	Filters   *SearchFilters `json:"filters,omitempty"`
}

// SearchResponse is the normalized result of a REST search.
// Failures are carried in Status/Message rather than returned as errors.
type SearchResponse struct {
	Products     []Product `json:"products"`
	Query        string    `json:"query"`
	TotalResults int       `json:"total_results,omitempty"`
	SearchTime   *float64  `json:"search_time,omitempty"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
}

// ErrorSearchResponse builds the structured failure response for a query
func ErrorSearchResponse(query, message string) *SearchResponse {
	return &SearchResponse{
		Products: []Product{},
		Query:    query,
		Status:   SearchStatusError,
		Message:  message,
	}
}
