package refdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"bitcoin": {"usd": 97123.5}}`))
	}))
	defer srv.Close()

	c := NewCryptoClient(CryptoClientOptions{BaseURL: srv.URL})
	price, err := c.SpotPrice(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, 97123.5, price)
}

func TestSpotPriceUnknownSymbol(t *testing.T) {
	c := NewCryptoClient(CryptoClientOptions{BaseURL: "http://unused"})
	_, err := c.SpotPrice(context.Background(), "NOTACOIN")
	assert.Error(t, err)
}

func TestSpotPriceMissingQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewCryptoClient(CryptoClientOptions{BaseURL: srv.URL})
	_, err := c.SpotPrice(context.Background(), "ETH")
	assert.Error(t, err)
}

func TestKnownSymbol(t *testing.T) {
	assert.True(t, KnownSymbol("eth"))
	assert.True(t, KnownSymbol("BTC"))
	assert.False(t, KnownSymbol("XYZ"))
}
