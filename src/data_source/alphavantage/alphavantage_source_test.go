package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"market-loader/src/helpers"
	"market-loader/src/logger"
	"market-loader/src/models"
	"market-loader/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyFixture = `{
  "Meta Data": {"2. Symbol": "AMZN"},
  "Time Series (Daily)": {
    "2024-01-03": {"1. open": "101.0", "2. high": "106.0", "3. low": "100.0", "4. close": "103.5", "5. volume": "23456"},
    "2024-01-02": {"1. open": "100.0", "2. high": "105.0", "3. low": "99.0", "4. close": "102.5", "5. volume": "12345"},
    "2024-01-04": {"1. open": "102.0", "2. high": "107.0", "3. low": "101.0", "4. close": "104.5", "5. volume": "34567"}
  }
}`

func newTestSource(t *testing.T, handler http.HandlerFunc) *AlphaVantageSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	netMgr := network.NewNetworkManager(&models.MNetworkConfig{RequestTimeout: 5}, logger.NewLogger("test"))
	return NewAlphaVantageSource(srv.URL, netMgr)
}

func TestFetchDailyKeepsDocumentOrder(t *testing.T) {
	var gotQuery map[string]string
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{"function": q.Get("function"), "symbol": q.Get("symbol"), "apikey": q.Get("apikey")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(dailyFixture))
	})

	quotes, err := src.FetchDaily(context.Background(), "AMZN", "demo-key")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"function": "TIME_SERIES_DAILY", "symbol": "AMZN", "apikey": "demo-key"}, gotQuery)
	require.Len(t, quotes, 3)
	assert.Equal(t, []string{"2024-01-03", "2024-01-02", "2024-01-04"},
		[]string{quotes[0].Date, quotes[1].Date, quotes[2].Date})
	assert.Equal(t, models.MRawQuote{
		Open: "100.0", High: "105.0", Low: "99.0", Close: "102.5", Volume: "12345",
		Date: "2024-01-02", Symbol: "AMZN",
	}, quotes[1])
}

func TestFetchDailyDefaultsSymbol(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultSymbol, r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"Time Series (Daily)": {}}`))
	})

	quotes, err := src.FetchDaily(context.Background(), "", "k")
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestFetchDailyServerErrorIsFetchError(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := src.FetchDaily(context.Background(), "AMZN", "k")
	require.Error(t, err)

	var fetchErr *helpers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

func TestFetchDailyTransportErrorHidesAPIKey(t *testing.T) {
	netMgr := network.NewNetworkManager(&models.MNetworkConfig{RequestTimeout: 2}, logger.NewLogger("test"))
	src := NewAlphaVantageSource("http://127.0.0.1:1", netMgr)

	_, err := src.FetchDaily(context.Background(), "AMZN", "SUPERSECRET123")
	require.Error(t, err)

	var fetchErr *helpers.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.NotContains(t, err.Error(), "SUPERSECRET123")
	assert.NotContains(t, err.Error(), "apikey")
	assert.Contains(t, err.Error(), "127.0.0.1:1/query")
}

func TestFetchDailyMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>nope</html>`,
		"missing key":      `{"Meta Data": {}}`,
		"rate limit note":  `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
		"series is array":  `{"Time Series (Daily)": []}`,
		"entry not object": `{"Time Series (Daily)": {"2024-01-02": 5}}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := src.FetchDaily(context.Background(), "AMZN", "k")
			var malformed *helpers.MalformedResponseError
			require.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestParseDailyResponseAcceptsNumericFields(t *testing.T) {
	body := `{"Time Series (Daily)": {
		"2024-01-02": {"1. open": 100.5, "2. high": "105.0", "3. low": 99, "4. close": 102.5, "5. volume": 12345},
		"2024-01-03": {"1. open": "n/a", "2. high": null, "3. low": "100.0", "4. close": "104.0", "5. volume": "1"}
	}}`

	quotes, err := ParseDailyResponse([]byte(body), "AMZN")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, models.MRawQuote{
		Open: "100.5", High: "105.0", Low: "99", Close: "102.5", Volume: "12345",
		Date: "2024-01-02", Symbol: "AMZN",
	}, quotes[0])
	assert.Equal(t, "n/a", quotes[1].Open)
	assert.Empty(t, quotes[1].High)

	_, err = ParseDailyResponse([]byte(`{"Time Series (Daily)": {"2024-01-02": {"1. open": true}}}`), "AMZN")
	var malformed *helpers.MalformedResponseError
	assert.True(t, errors.As(err, &malformed))
}

func TestParseDailyResponseSurfacesApiMessage(t *testing.T) {
	_, err := ParseDailyResponse([]byte(`{"Error Message": "Invalid API call."}`), "AMZN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API call.")
}
