package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherParsesDocument(t *testing.T) {
	uaCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uaCh <- r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h2 class="listing-details-h1">3 bed house for sale</h2></body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("zoopla-scraper-test", 5*time.Second)
	doc, err := f.Fetch(context.Background(), srv.URL+"/for-sale/details/1")
	require.NoError(t, err)

	assert.Equal(t, "3 bed house for sale", doc.Find("h2.listing-details-h1").Text())
	assert.Equal(t, "zoopla-scraper-test", <-uaCh)
}

func TestHTTPFetcherRefetchesSameURL(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", time.Second)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHTTPFetcherReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test", time.Second)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestHTTPFetcherHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher("test", time.Second)
	_, err := f.Fetch(ctx, "http://127.0.0.1:1/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChromeBinaryPrefersConfiguredPath(t *testing.T) {
	assert.Equal(t, "/opt/custom/chrome", chromeBinary("/opt/custom/chrome"))
}

func TestChromeBinaryIgnoresEnvironment(t *testing.T) {
	// CHROME_BIN is read by config; the fetcher only sees what it is given.
	t.Setenv("CHROME_BIN", "/env/only/chrome")
	assert.NotEqual(t, "/env/only/chrome", chromeBinary(""))
}
