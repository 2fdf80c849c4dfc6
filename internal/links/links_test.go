package links

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		w.Write([]byte(`{"url":"https://meet.example.com/room/42"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/", time.Second)
	link, err := p.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/room/42", link)
}

func TestHTTPProviderRejectsBadResponses(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"garbage body", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"relative url", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"url":"/room/42"}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewHTTPProvider(srv.URL, time.Second).Generate(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestValidURL(t *testing.T) {
	assert.True(t, ValidURL("https://meet.example.com/room"))
	assert.True(t, ValidURL("http://meet.example.com"))
	assert.False(t, ValidURL(""))
	assert.False(t, ValidURL("/relative/path"))
	assert.False(t, ValidURL("ftp://example.com/x"))
}
