package utils

import (
	"math"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMeetsPasswordPolicy(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"abc123$%", true},
		{"short1!", false},
		{"password!", false},
		{"12345678!", false},
		{"Password1", false},
		{"pass word1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, MeetsPasswordPolicy(tt.password))
		})
	}
}

func TestUsernameBase(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		externalID string
		want       string
	}{
		{"local part and id tail", "Jane.Doe@Example.com", "user_2abcXYZ789", "jane.doe_xyz789"},
		{"short id", "bob@example.com", "ab", "bob_ab"},
		{"symbols stripped", "a+b-c@example.com", "idp|123456", "abc_123456"},
		{"empty local part", "@example.com", "x1", "user_x1"},
		{"no external id", "zoe@example.com", "", "zoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsernameBase(tt.email, tt.externalID))
		})
	}
}

func TestUsernameCandidate(t *testing.T) {
	assert.Equal(t, "bob_ab", UsernameCandidate("bob_ab", 0))
	assert.Equal(t, "bob_ab1", UsernameCandidate("bob_ab", 1))
	assert.Equal(t, "bob_ab12", UsernameCandidate("bob_ab", 12))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 10},
		{"page=3&limit=5", 3, 5},
		{"page=0&limit=0", 1, 10},
		{"page=abc&limit=xyz", 1, 10},
		{"page=2&limit=1000", 2, 10},
		{"page=" + strconv.Itoa(math.MaxInt) + "&limit=10", 1, 10},
		{"page=" + strconv.Itoa(math.MaxInt/10) + "&limit=10", math.MaxInt / 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/api/events?"+tt.query, nil)

			params := GetPaginationParams(c)

			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
			assert.Equal(t, (tt.wantPage-1)*tt.wantLimit, params.Offset)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
