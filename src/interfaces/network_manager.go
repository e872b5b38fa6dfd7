package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs one GET request to the specified URL with query parameters.
	// Returns the response body, or a *helpers.FetchError on transport failure or non-2xx status.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
