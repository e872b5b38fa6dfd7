package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"market-loader/src/helpers"
	"market-loader/src/interfaces"
	"market-loader/src/logger"
	"market-loader/src/models"
)

const (
	DefaultSymbol  = "AMZN"
	DefaultBaseURL = "https://www.alphavantage.co"

	timeSeriesKey = "Time Series (Daily)"
)

// Alpha Vantage answers quota and key problems with HTTP 200 and one of these keys.
var notices = []string{"Error Message", "Note", "Information"}

type AlphaVantageSource struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAlphaVantageSource(baseURL string, netMgr interfaces.INetworkManager) *AlphaVantageSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &AlphaVantageSource{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Network: netMgr,
		Logger:  logger.NewLogger("AlphaVantageSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *AlphaVantageSource) Name() string {
	return "alphavantage"
}

// -----------------------------------------------------------------------------

// FetchDaily calls TIME_SERIES_DAILY for symbol and flattens the dated entries.
func (s *AlphaVantageSource) FetchDaily(ctx context.Context, symbol, apiKey string) ([]models.MRawQuote, error) {
	if symbol == "" {
		symbol = DefaultSymbol
	}

	params := map[string]string{
		"function": "TIME_SERIES_DAILY",
		"symbol":   symbol,
		"apikey":   apiKey,
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/query", params)
	if err != nil {
		s.Logger.Error("Failed to fetch stock data for %s: %v", symbol, err)
		return nil, err
	}

	quotes, err := ParseDailyResponse(body, symbol)
	if err != nil {
		s.Logger.Error("Failed to fetch stock data for %s: %v", symbol, err)
		return nil, err
	}

	s.Logger.Info("Successfully retrieved %d daily quotes for %s", len(quotes), symbol)
	return quotes, nil
}

// -----------------------------------------------------------------------------

// ParseDailyResponse extracts "Time Series (Daily)" keeping the order of the JSON document.
func ParseDailyResponse(body []byte, symbol string) ([]models.MRawQuote, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, helpers.NewMalformedResponseError("response is not a JSON object", err)
	}

	series, ok := top[timeSeriesKey]
	if !ok {
		for _, key := range notices {
			if raw, found := top[key]; found {
				var msg string
				_ = json.Unmarshal(raw, &msg)
				return nil, helpers.NewMalformedResponseError(fmt.Sprintf("missing %q, api said: %s", timeSeriesKey, msg), nil)
			}
		}
		return nil, helpers.NewMalformedResponseError(fmt.Sprintf("missing %q", timeSeriesKey), nil)
	}

	return decodeOrderedSeries(series, symbol)
}

// decodeOrderedSeries walks the object with a token decoder since a Go map would lose key order.
func decodeOrderedSeries(raw json.RawMessage, symbol string) ([]models.MRawQuote, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, helpers.NewMalformedResponseError("unreadable time series", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, helpers.NewMalformedResponseError(fmt.Sprintf("%q is not an object", timeSeriesKey), nil)
	}

	quotes := make([]models.MRawQuote, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, helpers.NewMalformedResponseError("unreadable time series key", err)
		}
		date, ok := tok.(string)
		if !ok {
			return nil, helpers.NewMalformedResponseError("time series key is not a string", nil)
		}

		var entry seriesEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, helpers.NewMalformedResponseError(fmt.Sprintf("entry %s is not a quote object", date), err)
		}
		quotes = append(quotes, models.MRawQuote{
			Open:   string(entry.Open),
			High:   string(entry.High),
			Low:    string(entry.Low),
			Close:  string(entry.Close),
			Volume: string(entry.Volume),
			Date:   date,
			Symbol: symbol,
		})
	}

	if _, err := dec.Token(); err != nil {
		return nil, helpers.NewMalformedResponseError("truncated time series", err)
	}
	return quotes, nil
}

// -----------------------------------------------------------------------------

type seriesEntry struct {
	Open   quoteValue `json:"1. open"`
	High   quoteValue `json:"2. high"`
	Low    quoteValue `json:"3. low"`
	Close  quoteValue `json:"4. close"`
	Volume quoteValue `json:"5. volume"`
}

// quoteValue keeps a field as text whether it is served as "100.5" or 100.5.
// Non-numeric strings pass through so the transform reports them per field.
type quoteValue string

func (v *quoteValue) UnmarshalJSON(data []byte) error {
	switch {
	case string(data) == "null":
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = quoteValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = quoteValue(n.String())
	return nil
}
