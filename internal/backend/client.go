// Package backend implements the client side of the upsert collaborator:
// the pipeline posts extraction results so the backend can compute and
// store the wallet metric server-side.
package backend

import (
	"context"
	"time"

	apperrors "github.com/account-explorer/internal/errors"
	"github.com/account-explorer/internal/logging"
	"github.com/account-explorer/internal/retry"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// UpsertRequest is the payload accepted by the upsert endpoint
type UpsertRequest struct {
	Address    string  `json:"address"`
	Balance    float64 `json:"balance"`
	TokenCount int     `json:"tokenCount"`
}

// UpsertResponse is the upsert endpoint's reply
type UpsertResponse struct {
	OK          bool    `json:"ok"`
	MetricValue float64 `json:"metricValue"`
	TokenCount  int64   `json:"tokenCount"`
}

// Client posts extraction results to the upsert endpoint. A failed upsert
// is retried a few times and then dropped; the next poll cycle will carry
// fresh data anyway.
type Client struct {
	http      *resty.Client
	upsertURL string
	retry     *retry.Config
	logger    *logging.Logger
}

// NewClient creates an upsert client for the given endpoint URL
func NewClient(upsertURL string, logger *logging.Logger) *Client {
	return &Client{
		http:      resty.New().SetTimeout(10 * time.Second),
		upsertURL: upsertURL,
		retry:     retry.DefaultConfig(),
		logger:    logger.WithField("component", "backend"),
	}
}

// Upsert posts the account's balance and token count
func (c *Client) Upsert(ctx context.Context, accountID string, balance decimal.Decimal, tokenCount int) error {
	amount, _ := balance.Float64()
	req := UpsertRequest{Address: accountID, Balance: amount, TokenCount: tokenCount}

	return retry.Do(ctx, c.retry, func(ctx context.Context, _ int) error {
		var out UpsertResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&out).
			Post(c.upsertURL)
		if err != nil {
			return apperrors.NewUnreachableError("upsert backend", err)
		}
		if !resp.IsSuccess() {
			return apperrors.NewUpstreamStatusError("upsert backend", resp.StatusCode())
		}
		c.logger.WithFields(map[string]interface{}{
			"account": accountID,
			"metric":  out.MetricValue,
		}).Debug("backend upsert acknowledged")
		return nil
	})
}
