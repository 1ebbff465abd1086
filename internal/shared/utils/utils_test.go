package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/usdtpay/internal/shared/constants"
)

func TestValidatePagination(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int
		want           Pagination
	}{
		{"defaults", 0, 0, Pagination{constants.DefaultPage, constants.DefaultPageSize}},
		{"capped", 3, 1000, Pagination{3, constants.MaxPageSize}},
		{"kept", 2, 50, Pagination{2, 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePagination(tt.page, tt.pageSize))
		})
	}
}

func TestParsePagination_IgnoresGarbage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/orders?page=abc&page_size=-4", nil)

	p := ParsePagination(c)
	assert.Equal(t, constants.DefaultPage, p.Page)
	assert.Equal(t, constants.DefaultPageSize, p.PageSize)
	assert.Equal(t, 0, p.Offset())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****7890", MaskSecret("1234567890"))
}
