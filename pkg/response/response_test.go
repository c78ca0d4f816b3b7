package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessWithPagination(t *testing.T) {
	resp := SuccessWithPagination(200, []int{1, 2}, 2, 20, 41)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, &Meta{Page: 2, Limit: 20, Total: 41, TotalPages: 3}, resp.Meta)
}

func TestErrorWithDetails(t *testing.T) {
	resp := ErrorWithDetails(409, "bility number already registered", map[string]string{"bility_number": "B-1"})

	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, map[string]string{"bility_number": "B-1"}, resp.Details)
	assert.Nil(t, resp.Data)
}
