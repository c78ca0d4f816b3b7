package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page request. Page is 1-based.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the query string. Missing or malformed
// values fall back to the defaults and limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	return New(queryInt(c, "page"), queryInt(c, "limit"))
}

// New normalizes raw page and limit values
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
