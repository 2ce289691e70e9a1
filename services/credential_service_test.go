package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialVerify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"valid key", http.StatusOK, `{"valid":true}`, true},
		{"invalid key", http.StatusOK, `{"valid":false}`, false},
		{"non-OK status", http.StatusUnauthorized, `{"valid":true}`, false},
		{"malformed body", http.StatusOK, `not json`, false},
		{"missing field", http.StatusOK, `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/verify", r.URL.Path)
				assert.Equal(t, "my-key", r.URL.Query().Get("key"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc := NewCredentialService(srv.URL, nil)
			assert.Equal(t, tt.want, svc.Verify(context.Background(), "my-key"))
		})
	}
}

func TestCredentialVerifyUnreachableBackend(t *testing.T) {
	svc := NewCredentialService("http://127.0.0.1:1", nil)
	assert.False(t, svc.Verify(context.Background(), "my-key"))
}
