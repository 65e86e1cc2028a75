package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowchart_backend/internal/feature/generation/domain"
	"flowchart_backend/internal/shared/apperr"
)

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	var gotKey, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "```mermaid\ngraph TD; A-->B\n```"}},
				},
			}},
		})
	}))
	defer srv.Close()

	g := NewGenerator(&http.Client{Timeout: 5 * time.Second}, "", srv.URL)
	out, err := g.Generate(context.Background(), "caller-key", "draw a login flow")

	require.NoError(t, err)
	assert.Equal(t, "```mermaid\ngraph TD; A-->B\n```", out)
	assert.Equal(t, "caller-key", gotKey)
	assert.True(t, strings.HasSuffix(gotPath, "models/"+DefaultModel+":generateContent"), gotPath)
	assert.Contains(t, gotBody, "draw a login flow")
}

func TestGenerator_Generate_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	g := NewGenerator(&http.Client{Timeout: 5 * time.Second}, "gemini-test", srv.URL)
	_, err := g.Generate(context.Background(), "bad-key", "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "API key not valid")
}
