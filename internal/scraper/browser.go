package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/account-explorer/internal/types"
	"github.com/chromedp/chromedp"
)

// tabRowsJS pulls every table row out of the rendered DOM as cells plus
// anchor hrefs, mirroring what the static parser extracts from raw HTML.
const tabRowsJS = `Array.from(document.querySelectorAll('table tr')).map(tr => ({
	cells: Array.from(tr.querySelectorAll('td')).map(td => td.innerText.trim()),
	links: Array.from(tr.querySelectorAll('a[href]')).map(a => a.href)
})).filter(r => r.cells.length > 0)`

// scrapePageHeadless renders the account page in an isolated headless
// browser context. Navigation is bounded by the configured timeout and
// the browser is torn down regardless of outcome. Tab switches click the
// tab control and wait a fixed settle delay, tolerating a missing control
// by reading whatever table is currently rendered.
func (s *AccountScraper) scrapePageHeadless(ctx context.Context, accountID string) *types.PageData {
	page := &types.PageData{Tabs: make(map[string]types.TabResult, len(accountTabs))}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, s.cfg.BrowserTimeout)
	defer cancelRun()

	url := fmt.Sprintf("%s/account/%s", strings.TrimRight(s.cfg.PageBaseURL, "/"), accountID)

	var bodyText string
	var hrefs []string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('a[href]')).map(a => a.href)`, &hrefs),
	)
	if err != nil {
		s.logger.Warnf("headless page render failed: %v", err)
		page.Error = err.Error()
		return page
	}

	page.TxLinks = FilterTxLinks(hrefs)
	page.Summary = ExtractSummary(bodyText)

	for _, tab := range accountTabs {
		rows, err := s.extractTabHeadless(runCtx, tab)
		if err != nil {
			page.Tabs[tab] = types.TabResult{Error: err.Error()}
			continue
		}
		page.Tabs[tab] = types.TabResult{Rows: rows}
	}
	return page
}

func (s *AccountScraper) extractTabHeadless(ctx context.Context, tab string) ([]types.TableRow, error) {
	// The tab control may be absent (explorer layout changes, accounts
	// with no such tab); read whatever table is rendered in that case.
	clickCtx, cancel := context.WithTimeout(ctx, s.cfg.TabSettleDelay)
	selector := fmt.Sprintf(`a[href*="tab=%s"]`, tab)
	if err := chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		s.logger.WithField("tab", tab).Debugf("tab control not found: %v", err)
	}
	cancel()

	var rows []types.TableRow
	err := chromedp.Run(ctx,
		chromedp.Sleep(s.cfg.TabSettleDelay),
		chromedp.Evaluate(tabRowsJS, &rows),
	)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
