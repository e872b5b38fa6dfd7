package models

// MRawQuote is one day of TIME_SERIES_DAILY data as served, with the date key and symbol attached.
type MRawQuote struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
	Date   string `json:"date"`
	Symbol string `json:"symbol"`
}

// MStockRecord is the flattened, typed form of MRawQuote.
// Date is the primary key of the target table.
type MStockRecord struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
}
