package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=0&limit=-5", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{"limit=1000", Params{Page: 1, Limit: MaxLimit, Offset: 0}},
		{"page=abc", Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request, _ = http.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			assert.Equal(t, tt.want, Parse(c))
		})
	}
}

func TestNew(t *testing.T) {
	assert.Equal(t, Params{Page: 2, Limit: 50, Offset: 50}, New(2, 50))
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit, Offset: 0}, New(0, 0))
}
