package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 20},
		{raw: "  ", want: 20},
		{raw: "0", want: 0},
		{raw: "7", want: 7},
		{raw: " 7 ", want: 7},
		{raw: "100", want: 100},
		{raw: "101", want: 100},
		{raw: "-1", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseLimit(tt.raw, 20, 100)
		if tt.wantErr {
			assert.ErrorIs(t, err, errInvalidLimit, "raw=%q", tt.raw)
			continue
		}
		require.NoError(t, err, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, http.StatusTeapot, "short_and_stout")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"short_and_stout"}`, w.Body.String())
}

func TestWriteJSONWithoutPayload(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
