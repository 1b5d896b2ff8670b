package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nikolayk812/storefront/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailClient_Send(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{name: "200: ok", status: http.StatusOK},
		{name: "202: ok", status: http.StatusAccepted},
		{name: "204: ok", status: http.StatusNoContent},
		{name: "500: error", status: http.StatusInternalServerError, wantError: true},
		{name: "302: error", status: http.StatusFound, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(srv.Close)

			mc, err := client.NewMail(srv.URL+"/send", client.WithHTTPClient(&http.Client{
				CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
			}))
			require.NoError(t, err)

			err = mc.Send(t.Context(), map[string]string{"to": "jane@example.com"})
			if tt.wantError {
				var se *client.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.status, se.StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "jane@example.com", got["to"])
		})
	}
}

func TestNewMail_Invalid(t *testing.T) {
	_, err := client.NewMail("")
	require.EqualError(t, err, "url is empty")
}
