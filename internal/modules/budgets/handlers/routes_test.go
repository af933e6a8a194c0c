package handlers

import (
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes(t *testing.T) {
	handler := NewHandler(nil, nil, nil, zerolog.Nop())

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		router.Route("/api", handler.RegisterRoutes)
	}, "RegisterRoutes should not panic")

	// Match resolves the route without running the handler, so a handler
	// answering 404 for a missing resource cannot hide a missing route.
	testCases := []struct {
		method string
		path   string
		name   string
	}{
		{"GET", "/api/budgets/2024-01", "List"},
		{"PUT", "/api/budgets/2024-01/Groceries", "Set"},
		{"GET", "/api/budgets/2024-01/analysis", "Analysis"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, router.Match(chi.NewRouteContext(), tc.method, tc.path),
				"route %s %s should be registered", tc.method, tc.path)
		})
	}

	for _, tc := range []struct{ method, path string }{
		{"POST", "/api/budgets/2024-01"},
		{"GET", "/api/budgets"},
	} {
		assert.False(t, router.Match(chi.NewRouteContext(), tc.method, tc.path),
			"route %s %s should not be registered", tc.method, tc.path)
	}
}
