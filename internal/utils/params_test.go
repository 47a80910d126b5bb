package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParseUintParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		value string
		want  uint
		ok    bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: tc.value}}
		got, err := ParseUintParam(c, "id")
		if tc.ok {
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		} else {
			assert.EqualError(t, err, "invalid id")
		}
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		query string
		page  int
		limit int
		err   string
	}{
		{"", 1, DefaultPageLimit, ""},
		{"?page=3&limit=5", 3, 5, ""},
		{"?limit=500", 1, MaxPageLimit, ""},
		{"?page=0", 0, 0, "Invalid page number"},
		{"?limit=x", 0, 0, "Invalid limit number"},
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
		page, limit, err := ParsePagination(c)
		if tc.err != "" {
			assert.EqualError(t, err, tc.err, tc.query)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tc.page, page, tc.query)
		assert.Equal(t, tc.limit, limit, tc.query)
	}
}
