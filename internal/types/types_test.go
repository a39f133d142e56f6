package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_Deterministic(t *testing.T) {
	details := AccountDetails{
		Account: json.RawMessage(`{"address":"0xABC","balance":"100000000"}`),
		Tokens:  json.RawMessage(`[{"symbol":"FLOW"}]`),
	}
	balance := decimal.RequireFromString("1.5")

	first := Fingerprint(details, balance)
	second := Fingerprint(details, balance)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestFingerprint_ExcludesFetchTime(t *testing.T) {
	details := AccountDetails{
		Tokens: json.RawMessage(`[{"symbol":"FLOW"}]`),
	}
	a := Snapshot{
		Account:   "0xABC",
		Balance:   decimal.NewFromInt(7),
		Details:   details,
		FetchedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b := a
	b.FetchedAt = a.FetchedAt.Add(time.Hour)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(),
		"snapshots differing only in fetch time must dedupe")
}

func TestFingerprint_SensitiveToContent(t *testing.T) {
	base := AccountDetails{Tokens: json.RawMessage(`[{"symbol":"FLOW"}]`)}
	balance := decimal.NewFromInt(10)

	changedTokens := AccountDetails{Tokens: json.RawMessage(`[{"symbol":"USDC"}]`)}
	assert.NotEqual(t, Fingerprint(base, balance), Fingerprint(changedTokens, balance))

	assert.NotEqual(t, Fingerprint(base, balance), Fingerprint(base, decimal.NewFromInt(11)),
		"a balance change alone must change the fingerprint")
}

func TestFingerprint_SensitiveToSectionErrors(t *testing.T) {
	clean := AccountDetails{Tokens: json.RawMessage(`[]`)}
	degraded := AccountDetails{
		Tokens: json.RawMessage(`[]`),
		Errors: map[string]string{"transactions": "status 502 from explorer"},
	}
	balance := decimal.Zero

	assert.NotEqual(t, Fingerprint(clean, balance), Fingerprint(degraded, balance))
}

func TestSectionLen(t *testing.T) {
	tests := []struct {
		name   string
		raw    json.RawMessage
		length int
		isSeq  bool
	}{
		{name: "nil section", raw: nil, length: 0, isSeq: false},
		{name: "empty array", raw: json.RawMessage(`[]`), length: 0, isSeq: true},
		{name: "array of objects", raw: json.RawMessage(`[{"a":1},{"b":2},{"c":3}]`), length: 3, isSeq: true},
		{name: "object is not a sequence", raw: json.RawMessage(`{"items":[1,2]}`), length: 0, isSeq: false},
		{name: "scalar is not a sequence", raw: json.RawMessage(`42`), length: 0, isSeq: false},
		{name: "malformed json", raw: json.RawMessage(`[1,2`), length: 0, isSeq: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, isSeq := SectionLen(tt.raw)
			assert.Equal(t, tt.isSeq, isSeq)
			assert.Equal(t, tt.length, length)
		})
	}
}

func TestSnapshot_RoundTripPreservesFingerprint(t *testing.T) {
	snap := Snapshot{
		Account:    "0xABC",
		Balance:    decimal.RequireFromString("12.34567891"),
		TokenCount: 4,
		Metric:     decimal.RequireFromString("16.34567891"),
		Details: AccountDetails{
			Account: json.RawMessage(`{"address":"0xABC"}`),
			Tokens:  json.RawMessage(`[{"symbol":"FLOW"},{"symbol":"USDC"}]`),
			Page: &PageData{
				TxLinks: []string{"https://example.com/tx/1"},
			},
		},
		FetchedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var restored Snapshot
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, snap.Fingerprint(), restored.Fingerprint(),
		"persistence must not perturb change detection")
	assert.Equal(t, snap.Account, restored.Account)
	assert.Equal(t, snap.TokenCount, restored.TokenCount)
	assert.True(t, snap.Balance.Equal(restored.Balance))
}
