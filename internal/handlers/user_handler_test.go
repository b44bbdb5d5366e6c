package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func performJSON(t *testing.T, handler gin.HandlerFunc, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body, err := json.Marshal(payload)
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestUserHandler_Create_RejectsUnknownRole(t *testing.T) {
	h := NewUserHandler(nil)

	w := performJSON(t, h.Create, "POST", "/users", map[string]interface{}{
		"email":     "clerk@example.com",
		"password":  "secret123",
		"full_name": "Clerk Person",
		"role":      "superuser",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "role must be")
}

func TestUserHandler_Create_RequiresFields(t *testing.T) {
	h := NewUserHandler(nil)

	w := performJSON(t, h.Create, "POST", "/users", map[string]interface{}{
		"email": "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_Create_RejectsShortPassword(t *testing.T) {
	h := NewUserHandler(nil)

	w := performJSON(t, h.Create, "POST", "/users", map[string]interface{}{
		"email":     "clerk@example.com",
		"password":  "abc",
		"full_name": "Clerk Person",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
