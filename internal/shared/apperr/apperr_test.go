package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	sentinel := New(KindNotFound, "flowchart not found")

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"client", New(KindClient, "bad"), http.StatusBadRequest},
		{"auth", New(KindAuth, "no session"), http.StatusUnauthorized},
		{"not found", sentinel, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get: %w", sentinel), http.StatusNotFound},
		{"upstream", Upstream(http.StatusTooManyRequests, "quota", nil), http.StatusInternalServerError},
		{"server", New(KindServer, "boom"), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestUpstream_KeepsSentinel(t *testing.T) {
	t.Parallel()

	sentinel := New(KindUpstream, "transcription failed")
	err := Upstream(http.StatusBadGateway, "transcription service returned 502", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, KindUpstream, KindOf(err))
	assert.Equal(t, "transcription service returned 502", Message(err))
	assert.Equal(t, http.StatusBadGateway, err.Status)
}

func TestMessage_HidesUnclassified(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "internal server error", Message(errors.New("sql: connection refused")))
	assert.Equal(t, "missing input", Message(fmt.Errorf("create: %w", New(KindClient, "missing input"))))
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "client", KindClient.String())
	assert.Equal(t, "auth", KindAuth.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "upstream", KindUpstream.String())
	assert.Equal(t, "server", KindServer.String())
}
