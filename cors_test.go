package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCORS(t *testing.T) {
	origins := []string{"http://localhost:5173", "https://frndr.example"}
	var reached bool
	h := withCORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Allowed origin is echoed", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/discover", nil)
		req.Header.Set("Origin", "https://frndr.example")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.True(t, reached)
		assert.Equal(t, "https://frndr.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.True(t, strings.EqualFold("X-Request-ID", w.Header().Get("Access-Control-Expose-Headers")))
	})

	t.Run("Unknown origin gets no grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/discover", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight stops here", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodOptions, "/login", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.False(t, reached)
		assert.Less(t, w.Code, 300)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.MethodPost, w.Header().Get("Access-Control-Allow-Methods"))
	})
}
