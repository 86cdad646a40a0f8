package goldapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preciousmetals/indexd/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	c := NewClient("test-key", zerolog.New(nil).Level(zerolog.Disabled))
	c.httpClient = server.Client()
	c.baseURL = server.URL
	return c, server.Close
}

func TestFetchQuote_Success(t *testing.T) {
	var gotPath, gotToken string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("x-access-token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 2041.55, "symbol": "XAU", "currency": "USD", "timestamp": 1700000000}`))
	}
	c, closeServer := newTestClient(t, handler)
	defer closeServer()

	price, err := c.FetchQuote(context.Background(), domain.XAU)
	require.NoError(t, err)
	assert.Equal(t, 2041.55, price)
	assert.Equal(t, "test-key", gotToken)
	assert.Contains(t, gotPath, "XAU")
}

func TestFetchQuote_NonOKStatusIsError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	c, closeServer := newTestClient(t, handler)
	defer closeServer()

	_, err := c.FetchQuote(context.Background(), domain.XAG)
	assert.Error(t, err)
}

func TestFetchQuote_NonPositivePriceIsError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price": 0}`))
	}
	c, closeServer := newTestClient(t, handler)
	defer closeServer()

	_, err := c.FetchQuote(context.Background(), domain.XPT)
	assert.Error(t, err)
}

func TestFetchQuote_MalformedBodyIsError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}
	c, closeServer := newTestClient(t, handler)
	defer closeServer()

	_, err := c.FetchQuote(context.Background(), domain.XPD)
	assert.Error(t, err)
}
