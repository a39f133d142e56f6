// Package scraper extracts structured account data from the block
// explorer: its JSON API, its rendered account page and the page's tabs.
// A scrape never fails as a whole; each failing source degrades only its
// own field in the result.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/account-explorer/internal/config"
	apperrors "github.com/account-explorer/internal/errors"
	"github.com/account-explorer/internal/logging"
	"github.com/account-explorer/internal/types"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// accountTabs are the named sub-views of the explorer account page,
// fetched one at a time to bound concurrent load on the explorer.
var accountTabs = []string{
	"transactions",
	"scheduled",
	"keys",
	"tokens",
	"ft-transfers",
	"nft-transfers",
	"collections",
}

// apiSections are the JSON API resources collected per account
var apiSections = []struct {
	key  string
	path string
}{
	{"account", "/address/%s"},
	{"transactions", "/address/%s/transactions"},
	{"tokens", "/address/%s/tokens"},
	{"nfts", "/address/%s/nfts"},
	{"events", "/address/%s/events"},
}

// AccountScraper collects AccountDetails from the explorer's API and
// rendered pages. The scrape source (static, headless browser, or local
// scraping service) is selected by configuration.
type AccountScraper struct {
	cfg     *config.ExplorerConfig
	api     *resty.Client
	page    *resty.Client
	service *resty.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewAccountScraper creates a scraper for the configured explorer hosts
func NewAccountScraper(cfg *config.ExplorerConfig, logger *logging.Logger) *AccountScraper {
	s := &AccountScraper{
		cfg:     cfg,
		api:     resty.New().SetBaseURL(cfg.APIBaseURL).SetTimeout(15 * time.Second),
		page:    resty.New().SetBaseURL(cfg.PageBaseURL).SetTimeout(20 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger.WithField("component", "scraper"),
	}
	if cfg.ScrapeServiceURL != "" {
		s.service = resty.New().SetBaseURL(cfg.ScrapeServiceURL).SetTimeout(60 * time.Second)
	}
	return s
}

// Scrape collects account details from the configured sources. It never
// returns an error: a partial (possibly empty) result is always produced,
// with per-field error markers for the sources that failed.
func (s *AccountScraper) Scrape(ctx context.Context, accountID string) types.AccountDetails {
	if s.cfg.Source == types.SourceService {
		return s.scrapeViaService(ctx, accountID)
	}

	details := types.AccountDetails{}
	for _, section := range apiSections {
		raw, err := s.fetchSection(ctx, accountID, section.path)
		if err != nil {
			s.logger.WithField("section", section.key).Warnf("section fetch failed: %v", err)
			s.recordError(&details, section.key, err)
			continue
		}
		s.assignSection(&details, section.key, raw)
	}

	if s.cfg.Source == types.SourceHeadless {
		details.Page = s.scrapePageHeadless(ctx, accountID)
	} else {
		details.Page = s.scrapePageStatic(ctx, accountID)
	}
	return details
}

// scrapeViaService asks the local scraping service for the full details
// bag. Its response has the same shape as a direct scrape.
func (s *AccountScraper) scrapeViaService(ctx context.Context, accountID string) types.AccountDetails {
	details := types.AccountDetails{}
	if s.service == nil {
		s.recordError(&details, "service", fmt.Errorf("scrape service not configured"))
		return details
	}

	resp, err := s.service.R().SetContext(ctx).Get(fmt.Sprintf("/api/scrape/%s", accountID))
	if err != nil {
		s.recordError(&details, "service", apperrors.NewUnreachableError("scrape service", err))
		return details
	}
	if !resp.IsSuccess() {
		s.recordError(&details, "service", apperrors.NewUpstreamStatusError("scrape service", resp.StatusCode()))
		return details
	}
	if err := json.Unmarshal(resp.Body(), &details); err != nil {
		s.recordError(&details, "service", apperrors.NewParseError("scrape service response", err))
	}
	return details
}

func (s *AccountScraper) fetchSection(ctx context.Context, accountID, pathTemplate string) (json.RawMessage, error) {
	resp, err := s.api.R().SetContext(ctx).Get(fmt.Sprintf(pathTemplate, accountID))
	if err != nil {
		return nil, apperrors.NewUnreachableError("explorer api", err)
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewUpstreamStatusError("explorer api", resp.StatusCode())
	}
	body := resp.Body()
	if !json.Valid(body) {
		return nil, apperrors.NewParseError("explorer api response", fmt.Errorf("invalid JSON"))
	}
	return json.RawMessage(body), nil
}

func (s *AccountScraper) assignSection(details *types.AccountDetails, key string, raw json.RawMessage) {
	switch key {
	case "account":
		details.Account = raw
	case "transactions":
		details.Transactions = raw
	case "tokens":
		details.Tokens = raw
	case "nfts":
		details.NFTs = raw
	case "events":
		details.Events = raw
	}
}

func (s *AccountScraper) recordError(details *types.AccountDetails, key string, err error) {
	if details.Errors == nil {
		details.Errors = map[string]string{}
	}
	details.Errors[key] = err.Error()
}

// scrapePageStatic fetches and parses the account page and its tabs as
// static HTML. The page fetch and every tab fetch fail independently.
func (s *AccountScraper) scrapePageStatic(ctx context.Context, accountID string) *types.PageData {
	page := &types.PageData{Tabs: make(map[string]types.TabResult, len(accountTabs))}

	body, err := s.fetchPageHTML(ctx, accountID, "")
	if err != nil {
		s.logger.Warnf("account page fetch failed: %v", err)
		page.Error = err.Error()
	} else if doc, perr := html.Parse(bytes.NewReader(body)); perr != nil {
		page.Error = apperrors.NewParseError("account page", perr).Error()
	} else {
		page.TxLinks = FilterTxLinks(collectAnchors(doc))
		page.Summary = ExtractSummary(visibleText(doc))
	}

	for _, tab := range accountTabs {
		rows, err := s.fetchTab(ctx, accountID, tab)
		if err != nil {
			page.Tabs[tab] = types.TabResult{Error: err.Error()}
			continue
		}
		page.Tabs[tab] = types.TabResult{Rows: rows}
	}
	return page
}

func (s *AccountScraper) fetchTab(ctx context.Context, accountID, tab string) ([]types.TableRow, error) {
	body, err := s.fetchPageHTML(ctx, accountID, tab)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewParseError("tab page", err)
	}
	return parseTableRows(doc), nil
}

func (s *AccountScraper) fetchPageHTML(ctx context.Context, accountID, tab string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewUnreachableError("explorer page", err)
	}

	req := s.page.R().SetContext(ctx)
	if tab != "" {
		req.SetQueryParam("tab", tab)
	}
	resp, err := req.Get(fmt.Sprintf("/account/%s", accountID))
	if err != nil {
		return nil, apperrors.NewUnreachableError("explorer page", err)
	}
	if !resp.IsSuccess() {
		return nil, apperrors.NewUpstreamStatusError("explorer page", resp.StatusCode())
	}
	return resp.Body(), nil
}
