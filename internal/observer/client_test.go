package observer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitepilot/crm-backend/internal/observer"
	"github.com/stretchr/testify/require"
)

func TestClientReadsLogFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/42/log", r.URL.Path)
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[
			{"id":1,"step":"briefing","status":"info","message":"starting briefing","createdAt":"2026-08-30T10:00:00Z"},
			{"id":2,"step":"SUCCESS","status":"success","message":"site generation finished","createdAt":"2026-08-30T10:05:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := observer.NewClient(srv.URL, "token-1")
	entries, err := client.ReadLog(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(1), entries[0].ID)
	require.True(t, observer.IsTerminal(entries[1]))
}

func TestClientSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"order 42 not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := observer.NewClient(srv.URL, "")
	_, err := client.ReadLog(context.Background(), 42)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}
