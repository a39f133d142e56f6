// Package fetcher queries the Flow access node for native account balances.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/account-explorer/internal/config"
	apperrors "github.com/account-explorer/internal/errors"
	"github.com/account-explorer/internal/types"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// balanceScale converts the access node's smallest-unit balance into
// display units (1 FLOW = 1e8 raw units).
var balanceScale = decimal.NewFromInt(100_000_000)

// BalanceFetcher fetches native balances from a Flow REST access node.
// It performs no internal retries; the caller's periodic re-invocation is
// the retry mechanism.
type BalanceFetcher struct {
	client *resty.Client
}

// NewBalanceFetcher creates a fetcher against the configured access node
func NewBalanceFetcher(cfg *config.FlowConfig) *BalanceFetcher {
	client := resty.New().
		SetBaseURL(cfg.AccessNodeURL).
		SetTimeout(15 * time.Second)
	return &BalanceFetcher{client: client}
}

// flexAmount tolerates the balance arriving as either a JSON string or a
// JSON number, which varies between access node versions.
type flexAmount string

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexAmount(n.String())
	return nil
}

// accountEnvelope matches the two response shapes seen in the wild:
// a top-level balance field, or the account object nested one level down.
type accountEnvelope struct {
	Balance flexAmount `json:"balance"`
	Account *struct {
		Balance flexAmount `json:"balance"`
	} `json:"account"`
}

// Fetch returns the account's native balance in display units.
// Failures are categorized (upstream status, unreachable, parse) so the
// pipeline can degrade to a zero balance without aborting its cycle.
func (f *BalanceFetcher) Fetch(ctx context.Context, accountID string) (types.BalanceReading, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/accounts/%s", accountID))
	if err != nil {
		return types.BalanceReading{}, apperrors.NewUnreachableError("flow access node", err)
	}
	if !resp.IsSuccess() {
		return types.BalanceReading{}, apperrors.NewUpstreamStatusError("flow access node", resp.StatusCode())
	}

	var envelope accountEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return types.BalanceReading{}, apperrors.NewParseError("account response", err)
	}

	raw := envelope.Balance
	if envelope.Account != nil && envelope.Account.Balance != "" {
		raw = envelope.Account.Balance
	}
	if raw == "" {
		raw = "0"
	}

	amount, err := decimal.NewFromString(string(raw))
	if err != nil {
		return types.BalanceReading{}, apperrors.NewParseError("balance field", err)
	}
	if amount.IsNegative() {
		return types.BalanceReading{}, apperrors.NewParseError("balance field", fmt.Errorf("negative balance %s", amount))
	}

	return types.BalanceReading{
		Amount:    amount.Div(balanceScale),
		FetchedAt: time.Now().UTC(),
	}, nil
}
