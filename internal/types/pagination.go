package types

// PaginationResponse represents standardized pagination metadata
type PaginationResponse struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// ListResponse represents a paginated response with the page of matching records
type ListResponse[T any] struct {
	Data       []T                `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewPaginationResponse creates a new pagination response
func NewPaginationResponse(total, page, limit int) PaginationResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationResponse{
		Total:       total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: page*limit < total,
		HasPrevPage: page > 1,
	}
}

// NewListResponse creates a new list response with pagination
func NewListResponse[T any](data []T, total, page, limit int) ListResponse[T] {
	return ListResponse[T]{
		Data:       data,
		Pagination: NewPaginationResponse(total, page, limit),
	}
}
