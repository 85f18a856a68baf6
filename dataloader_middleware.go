package main

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

// DataLoaderMiddleware creates middleware that injects dataloaders into the request context
func DataLoaderMiddleware(db *sqlx.DB, wait time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Fresh loaders per request so answers are never served from an older request
			ctx := WithDataLoaders(r.Context(), NewDataLoaders(db, wait))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
