package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type echoResponse struct {
	Path string `json:"path"`
}

func TestClientPostbRoundtrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		require.Equal(t, "user-1", r.Header.Get("user_id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "value", body["key"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echoResponse{Path: r.URL.Path})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok123", "user-1")

	var out echoResponse
	err := c.Postb(context.Background(), "ecdsa/keygen/first", map[string]string{"key": "value"}, &out)
	require.NoError(t, err)
	require.Equal(t, "/ecdsa/keygen/first", out.Path)
}

func TestClientPropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "")
	err := c.Post(context.Background(), "whatever", nil)
	require.Error(t, err)
}

type fakeRequester struct {
	postErr error
}

func (f *fakeRequester) Post(ctx context.Context, path string, out any) error {
	return f.postErr
}

func (f *fakeRequester) Postb(ctx context.Context, path string, body any, out any) error {
	return f.postErr
}

func TestAsyncClientDeliversResult(t *testing.T) {
	ac := NewAsyncClient(&fakeRequester{})
	ch := ac.PostAsync(context.Background(), "status", nil)
	require.NoError(t, <-ch)
}
