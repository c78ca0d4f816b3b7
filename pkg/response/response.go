package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    interface{} `json:"details,omitempty"`
	Meta       *Meta       `json:"meta,omitempty"`
}

// Meta carries paging information for list endpoints
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithPagination wraps a page of data with its paging metadata
func SuccessWithPagination(statusCode int, data interface{}, page, limit int, total int64) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
		Meta:       newMeta(page, limit, total),
	}
}

func newMeta(page, limit int, total int64) *Meta {
	m := &Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		m.TotalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return m
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ErrorWithDetails is Error plus a structured payload, e.g. conflicting ids
func ErrorWithDetails(statusCode int, err string, details interface{}) Response {
	resp := Error(statusCode, err)
	resp.Details = details
	return resp
}
