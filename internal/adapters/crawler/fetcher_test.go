package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchText_HTMLDropsScriptsAndStyles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Bank</title><style>p{color:red}</style></head>
<body><script>steal()</script><h1>Confirm   your</h1>
<p>card number</p></body></html>`))
	}))
	defer server.Close()

	text, err := NewFetcher(time.Second, 0, zap.NewNop()).FetchText(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Confirm your card number", text)
}

func TestFetchText_TitleWhenBodyEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Sign in</title></head><body><script>x()</script></body></html>`))
	}))
	defer server.Close()

	text, err := NewFetcher(time.Second, 0, zap.NewNop()).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Sign in", text)
}

func TestFetchText_PlainTextIsExcerpted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("word ", 100)))
	}))
	defer server.Close()

	text, err := NewFetcher(time.Second, 20, zap.NewNop()).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "word word word word ", text)
}

func TestFetchText_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewFetcher(time.Second, 0, zap.NewNop()).FetchText(context.Background(), server.URL)
	assert.ErrorContains(t, err, "404")
}

func TestFetchText_StopsAfterFiveRedirects(t *testing.T) {
	var hops atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops.Add(1)
		http.Redirect(w, r, "/next", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewFetcher(time.Second, 0, zap.NewNop()).FetchText(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(5), hops.Load())
}
