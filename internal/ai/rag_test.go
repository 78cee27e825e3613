package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRAGClient_Generate(t *testing.T) {
	var got ragRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ragResponse{Response: "  from the docs  "})
	}))
	defer srv.Close()

	c := NewRAGClient(srv.URL+"/", "", srv.Client())
	require.True(t, c.Enabled())
	assert.False(t, c.IngestEnabled())

	text, err := c.Generate(context.Background(), "what is our SLA?", []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "from the docs", text)
	assert.Equal(t, "what is our SLA?", got.Prompt)
	assert.Len(t, got.ChatHistory, 2)
	assert.Equal(t, RoleAssistant, got.ChatHistory[1].Role)
}

func TestRAGClient_GenerateErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "index not ready", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewRAGClient(srv.URL, "", srv.Client()).Generate(context.Background(), "q", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"response":"   "}`))
		}))
		defer srv.Close()

		_, err := NewRAGClient(srv.URL, "", srv.Client()).Generate(context.Background(), "q", nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewRAGClient("", "", nil).Generate(context.Background(), "q", nil)
		assert.Error(t, err)
	})
}

func TestRAGClient_Ingest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "handbook.txt", hdr.Filename)
		assert.Equal(t, "vacation policy", string(data))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRAGClient("", srv.URL, srv.Client())
	require.True(t, c.IngestEnabled())
	require.NoError(t, c.Ingest(context.Background(), "handbook.txt", strings.NewReader("vacation policy")))
}
