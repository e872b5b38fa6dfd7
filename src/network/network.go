package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"time"

	"market-loader/src/helpers"
	"market-loader/src/logger"
	"market-loader/src/models"

	"github.com/go-resty/resty/v2"
)

type NetworkManager struct {
	Config *models.MNetworkConfig
	Client *resty.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MNetworkConfig, log *logger.Logger) *NetworkManager {
	client := resty.New()
	if cfg.RequestTimeout > 0 {
		client.SetTimeout(time.Duration(cfg.RequestTimeout) * time.Second)
	}
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Proxy != "" {
		client.SetProxy(cfg.Proxy)
	}

	return &NetworkManager{
		Config: cfg,
		Client: client,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Get performs a single GET request. Retrying is left to whoever triggers the run.
func (nm *NetworkManager) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	resp, err := nm.Client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		err = withoutQuery(err)
		nm.Logger.Error("GET %s failed: %v", url, err)
		return nil, helpers.NewFetchError(0, fmt.Sprintf("request to %s failed", url), err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		nm.Logger.Error("GET %s returned status %d", url, resp.StatusCode())
		return nil, helpers.NewFetchError(resp.StatusCode(), fmt.Sprintf("bad status %d from %s", resp.StatusCode(), url), nil)
	}

	nm.Logger.Debug("GET %s returned %d bytes", url, len(resp.Body()))
	return resp.Body(), nil
}

// withoutQuery drops the request URL from transport errors. Query parameters
// carry credentials (apikey) and must not reach logs or run reports.
func withoutQuery(err error) error {
	var uerr *neturl.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
