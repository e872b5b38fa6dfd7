package interfaces

import (
	"context"

	"market-loader/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteSource fetches daily quotes for one symbol from an external API.
// -----------------------------------------------------------------------------

type IQuoteSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchDaily issues one request and returns the quotes in document order.
	// apiKey is passed per call; sources keep no credentials of their own.
	FetchDaily(ctx context.Context, symbol, apiKey string) ([]models.MRawQuote, error)
}
