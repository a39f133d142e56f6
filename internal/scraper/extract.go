package scraper

import (
	"regexp"
	"strings"
)

// FieldExtractor binds a summary field name to the heuristic that pulls
// its value out of the rendered page text. Keeping the table data-driven
// lets the heuristics be updated and tested without touching the fetch
// pipeline.
type FieldExtractor struct {
	Field   string
	Pattern *regexp.Regexp
	Clean   func(string) string
}

// Extract runs the heuristic against the page text. A missing match
// yields nil, never an error.
func (e FieldExtractor) Extract(text string) *string {
	m := e.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	value := m[1]
	if e.Clean != nil {
		value = e.Clean(value)
	}
	return &value
}

// stripSeparators removes thousands separators from a numeric token
func stripSeparators(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// labeledNumber matches a label followed by a numeric token with optional
// thousands separators and decimal point, within a short window so a
// label never captures an unrelated number further down the page.
func labeledNumber(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[^0-9]{0,40}([0-9][0-9,]*(?:\.[0-9]+)?)`)
}

// summaryExtractors covers the balance figures shown on the explorer's
// account page header.
var summaryExtractors = []FieldExtractor{
	{Field: "primary", Pattern: labeledNumber("Primary"), Clean: stripSeparators},
	{Field: "staked", Pattern: labeledNumber("Staked"), Clean: stripSeparators},
	{Field: "delegated", Pattern: labeledNumber("Delegated"), Clean: stripSeparators},
	{Field: "total", Pattern: labeledNumber("Total"), Clean: stripSeparators},
	{Field: "storageFlow", Pattern: labeledNumber("Storage FLOW"), Clean: stripSeparators},
}

// storageSizeExtractor pulls the storage usage figure (number plus unit)
// with its own pattern since the unit suffix matters.
var storageSizeExtractor = FieldExtractor{
	Field:   "storageSize",
	Pattern: regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]+)?\s?(?:B|KB|MB|GB))\b`),
	Clean:   strings.TrimSpace,
}

// ExtractSummary applies every summary heuristic to the page's visible
// text. Every configured field is present in the result; unmatched fields
// map to nil.
func ExtractSummary(text string) map[string]*string {
	summary := make(map[string]*string, len(summaryExtractors)+1)
	for _, e := range summaryExtractors {
		summary[e.Field] = e.Extract(text)
	}
	summary[storageSizeExtractor.Field] = storageSizeExtractor.Extract(text)
	return summary
}

// txLinkKeywords identifies transaction-related anchors by substring
var txLinkKeywords = []string{"transaction", "/tx/", "txid"}

// FilterTxLinks keeps anchors that look transaction-related, preserving
// first-seen order and dropping duplicates.
func FilterTxLinks(hrefs []string) []string {
	seen := make(map[string]struct{}, len(hrefs))
	var out []string
	for _, href := range hrefs {
		lower := strings.ToLower(href)
		matched := false
		for _, kw := range txLinkKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		out = append(out, href)
	}
	return out
}
