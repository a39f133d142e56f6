package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePageText = `
0xABC Account
Primary 1,234.56 FLOW
Staked 100 FLOW
Delegated 0.5 FLOW
Total 1,335.06 FLOW
Storage FLOW 0.001
Storage Used 12.5 KB
`

func TestExtractSummary(t *testing.T) {
	summary := ExtractSummary(samplePageText)

	want := map[string]string{
		"primary":     "1234.56",
		"staked":      "100",
		"delegated":   "0.5",
		"total":       "1335.06",
		"storageFlow": "0.001",
		"storageSize": "12.5 KB",
	}
	for field, value := range want {
		require.NotNil(t, summary[field], "field %q should match", field)
		assert.Equal(t, value, *summary[field], "field %q", field)
	}
}

func TestExtractSummary_MissingFieldsAreNil(t *testing.T) {
	summary := ExtractSummary("nothing useful here")

	for field, value := range summary {
		assert.Nil(t, value, "field %q should be nil on an empty page", field)
	}
	// Every configured field still has an entry.
	for _, field := range []string{"primary", "staked", "delegated", "total", "storageFlow", "storageSize"} {
		_, ok := summary[field]
		assert.True(t, ok, "field %q should be present", field)
	}
}

func TestExtractSummary_CaseInsensitiveLabels(t *testing.T) {
	summary := ExtractSummary("PRIMARY: 42 FLOW")
	require.NotNil(t, summary["primary"])
	assert.Equal(t, "42", *summary["primary"])
}

func TestExtractSummary_LabelWindowIsBounded(t *testing.T) {
	// The number is too far from the label to be its value.
	text := "Primary balance is shown in the panel on the right side of the account header area 999"
	summary := ExtractSummary(text)
	assert.Nil(t, summary["primary"])
}

func TestStorageSizeUnits(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"uses 512 B of storage", "512 B"},
		{"uses 1.5KB", "1.5KB"},
		{"uses 2,048 MB total", "2,048 MB"},
		{"uses 3 GB", "3 GB"},
	}
	for _, tt := range tests {
		got := storageSizeExtractor.Extract(tt.text)
		require.NotNil(t, got, "text %q", tt.text)
		assert.Equal(t, tt.want, *got, "text %q", tt.text)
	}
}

func TestFilterTxLinks(t *testing.T) {
	hrefs := []string{
		"/account/0xABC",
		"/tx/deadbeef",
		"https://example.com/transaction/123",
		"/tx/deadbeef",
		"?txid=feedface",
		"/tokens",
	}

	got := FilterTxLinks(hrefs)
	assert.Equal(t, []string{
		"/tx/deadbeef",
		"https://example.com/transaction/123",
		"?txid=feedface",
	}, got, "keeps transaction links only, first-seen order, no duplicates")
}

func TestFilterTxLinks_Empty(t *testing.T) {
	assert.Empty(t, FilterTxLinks(nil))
	assert.Empty(t, FilterTxLinks([]string{"/account/0xABC"}))
}
