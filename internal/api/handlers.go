package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/account-explorer/internal/errors"
	"github.com/account-explorer/internal/types"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// upsertWalletRequest mirrors the payload the dashboard posts after an
// extraction cycle. All fields except address are optional; the server
// fills gaps (tokenCount, metric) itself.
type upsertWalletRequest struct {
	Address     string                `json:"address"`
	Balance     *float64              `json:"balance"`
	TokenCount  *int64                `json:"tokenCount"`
	MetricValue *float64              `json:"metricValue"`
	Details     *types.AccountDetails `json:"details"`
}

type upsertWalletResponse struct {
	OK          bool    `json:"ok"`
	MetricValue float64 `json:"metricValue"`
	TokenCount  int64   `json:"tokenCount"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScrape runs an on-demand scrape and returns the details bag. The
// raw capture is archived in the wallet store when one is configured;
// archive failures do not fail the request.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		s.writeError(w, apperrors.NewInvalidAccountError(address))
		return
	}

	details := s.scraper.Scrape(r.Context(), address)

	if s.wallets != nil {
		if err := s.wallets.InsertRawSnapshot(r.Context(), address, details); err != nil {
			s.logger.Warnf("failed to archive scrape for %s: %v", address, err)
		}
	}

	s.writeJSON(w, http.StatusOK, details)
}

// handleUpsertWallet persists the wallet, its balance and a computed
// summary metric. The token count falls back to a server-side document
// count when the caller did not supply one.
func (s *Server) handleUpsertWallet(w http.ResponseWriter, r *http.Request) {
	if s.wallets == nil {
		s.writeError(w, apperrors.NewStorageError("upsert", errNoWalletStore))
		return
	}

	var req upsertWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.NewInvalidAccountError("<malformed body>"))
		return
	}
	if req.Address == "" {
		s.writeError(w, apperrors.NewInvalidAccountError(req.Address))
		return
	}

	ctx := r.Context()
	if err := s.wallets.UpsertWallet(ctx, req.Address); err != nil {
		s.writeError(w, err)
		return
	}

	balance := decimal.Zero
	if req.Balance != nil {
		balance = decimal.NewFromFloat(*req.Balance)
		if err := s.wallets.UpsertNativeBalance(ctx, req.Address, balance); err != nil {
			s.writeError(w, err)
			return
		}
	}

	tokenCount := int64(0)
	if req.TokenCount != nil {
		tokenCount = *req.TokenCount
	} else {
		count, err := s.wallets.CountTokens(ctx, req.Address)
		if err != nil {
			s.logger.Warnf("token count fallback failed for %s: %v", req.Address, err)
		} else {
			tokenCount = count
		}
	}

	metric := balance.Add(decimal.NewFromInt(tokenCount))
	if err := s.wallets.InsertMetric(ctx, req.Address, metric, tokenCount); err != nil {
		s.writeError(w, err)
		return
	}

	if req.Details != nil {
		if err := s.wallets.InsertRawSnapshot(ctx, req.Address, *req.Details); err != nil {
			s.logger.Warnf("failed to archive details for %s: %v", req.Address, err)
		}
	}

	value, _ := metric.Float64()
	s.writeJSON(w, http.StatusOK, upsertWalletResponse{OK: true, MetricValue: value, TokenCount: tokenCount})
}

func (s *Server) handleSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	history, err := s.snapshots.History(r.Context(), address)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet":    address,
		"count":     len(history),
		"snapshots": history,
	})
}

func (s *Server) handleSnapshotClear(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if err := s.snapshots.Clear(r.Context(), address); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	state, ok := s.board.State(address)
	resp := map[string]interface{}{
		"wallet": address,
		"logs":   s.board.Lines(),
	}
	if ok {
		resp["state"] = state
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleWatch starts polling the account; an already-watched account is
// restarted, never double-polled.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		s.writeError(w, apperrors.NewStorageError("watch", errNoWatcher))
		return
	}
	address := mux.Vars(r)["address"]
	s.watcher.Start(address)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"watching": address})
}

// handleUnwatch stops polling and clears the account's local history,
// mirroring the dashboard's disconnect behavior.
func (s *Server) handleUnwatch(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		s.writeError(w, apperrors.NewStorageError("unwatch", errNoWatcher))
		return
	}
	address := mux.Vars(r)["address"]
	s.watcher.Stop()
	if err := s.snapshots.Clear(r.Context(), address); err != nil {
		s.logger.Warnf("failed to clear history for %s: %v", address, err)
	}
	s.board.Forget(address)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warnf("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	catErr := apperrors.Categorize(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(catErr.StatusCode)
	if encErr := json.NewEncoder(w).Encode(map[string]interface{}{"error": catErr.ToServiceError()}); encErr != nil {
		s.logger.Warnf("failed to encode error response: %v", encErr)
	}
}
