package main

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The backend needs Cross-Origin Resource Sharing to function with the frontend in modern browsers.

// withCORS allows the configured origins. Requests from other origins get no
// CORS headers, which the browser then rejects.
func withCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}
