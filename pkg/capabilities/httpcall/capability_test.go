package httpcall

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexflow/lexflow/pkg/protocol"
)

func newTestCapability() *Capability {
	return NewCapability(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCapability_Invoke_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"charge_id":"ch_123"}`))
	}))
	defer server.Close()

	result, err := newTestCapability().Invoke(context.Background(), map[string]any{
		"url":    server.URL,
		"method": "POST",
		"body":   `{"amount":100}`,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result["status_code"])

	jsonBody, ok := result["json"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ch_123", jsonBody["charge_id"])
}

func TestCapability_Invoke_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestCapability().Invoke(context.Background(), map[string]any{"url": server.URL}, nil)
	require.Error(t, err)
	assert.True(t, protocol.IsTransient(err))
}

func TestCapability_Invoke_ClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := newTestCapability().Invoke(context.Background(), map[string]any{"url": server.URL}, nil)
	require.Error(t, err)
	assert.False(t, protocol.IsTransient(err))
}

func TestCapability_Invoke_MissingURL(t *testing.T) {
	_, err := newTestCapability().Invoke(context.Background(), map[string]any{}, nil)
	require.Error(t, err)
	assert.False(t, protocol.IsTransient(err))
	assert.Contains(t, err.Error(), "url")
}

func TestCapability_Invoke_ConnectionRefusedIsTransient(t *testing.T) {
	_, err := newTestCapability().Invoke(context.Background(), map[string]any{
		"url": "http://127.0.0.1:1/unreachable",
	}, nil)
	require.Error(t, err)
	assert.True(t, protocol.IsTransient(err))
}
