package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/liamashdown/bigfishalert/internal/explain"
	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scanner"
	"github.com/liamashdown/bigfishalert/internal/scoring"
	"github.com/liamashdown/bigfishalert/internal/solana"
	"github.com/liamashdown/bigfishalert/internal/storage"
)

const defaultHistoryLimit = 50

type scanTokenRequest struct {
	TokenAddress string `json:"tokenAddress"`
	Explain      bool   `json:"explain"`
	Language     string `json:"language"`
}

type scanTokenResponse struct {
	Success   bool                   `json:"success"`
	Data      *scanner.TokenAnalysis `json:"data"`
	RiskLevel scoring.Risk           `json:"riskLevel"`
}

type scanOceanRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type scanOceanResponse struct {
	Success bool                  `json:"success"`
	Data    []scanner.OceanToken  `json:"data"`
	Summary *scanner.OceanSummary `json:"summary,omitempty"`
	Skipped int                   `json:"skipped,omitempty"`
	Message string                `json:"message,omitempty"`
}

type explainRequest struct {
	BigFishScore *scoring.BigFishScore `json:"bigFishScore"`
	Language     string                `json:"language"`
	TokenSymbol  string                `json:"tokenSymbol"`
	TopHolders   []scoring.TokenHolder `json:"topHolders"`
}

type explainResponse struct {
	Success     bool   `json:"success"`
	Explanation string `json:"explanation"`
}

type bigFishResponse struct {
	Success bool                  `json:"success"`
	Data    []scanner.BigFishMove `json:"data"`
	Count   int                   `json:"count"`
}

type historyResponse struct {
	Success bool                 `json:"success"`
	Data    []storage.ScanRecord `json:"data"`
	Count   int                  `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScanToken(w http.ResponseWriter, r *http.Request) {
	var req scanTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.TokenAddress = strings.TrimSpace(req.TokenAddress)
	if req.TokenAddress == "" {
		writeError(w, http.StatusBadRequest, "Token address is required")
		return
	}

	analysis, err := s.deps.Scanner.ScanToken(r.Context(), req.TokenAddress, scanner.ScanOptions{
		Explain:  req.Explain,
		Language: req.Language,
		Origin:   scanner.OriginAPI,
	})
	if errors.Is(err, scanner.ErrInvalidAddress) {
		writeError(w, http.StatusBadRequest, "Invalid Solana address")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("token", req.TokenAddress).Error("Error scanning token")
		writeError(w, http.StatusInternalServerError, "Failed to scan token. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, scanTokenResponse{
		Success:   true,
		Data:      analysis,
		RiskLevel: analysis.Risk,
	})
}

func (s *Server) handleScanOcean(w http.ResponseWriter, r *http.Request) {
	var req scanOceanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.WalletAddress = strings.TrimSpace(req.WalletAddress)
	if req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "Wallet address is required")
		return
	}

	report, err := s.deps.Scanner.ScanWallet(r.Context(), req.WalletAddress)
	if errors.Is(err, scanner.ErrInvalidAddress) {
		writeError(w, http.StatusBadRequest, "Invalid wallet address")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("wallet", req.WalletAddress).Error("Error scanning ocean")
		writeError(w, http.StatusInternalServerError, "Failed to scan portfolio")
		return
	}

	if len(report.Tokens) == 0 {
		writeJSON(w, http.StatusOK, scanOceanResponse{
			Success: true,
			Data:    []scanner.OceanToken{},
			Message: "No tokens found in wallet",
		})
		return
	}

	writeJSON(w, http.StatusOK, scanOceanResponse{
		Success: true,
		Data:    report.Tokens,
		Summary: &report.Summary,
		Skipped: report.Skipped,
	})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.BigFishScore == nil {
		writeError(w, http.StatusBadRequest, "Big Fish Score data is required")
		return
	}

	explanation := s.deps.Explainer.Explain(r.Context(), explain.Request{
		Score:       *req.BigFishScore,
		Language:    req.Language,
		TokenSymbol: req.TokenSymbol,
		TopHolders:  req.TopHolders,
	})

	writeJSON(w, http.StatusOK, explainResponse{
		Success:     true,
		Explanation: explanation,
	})
}

func (s *Server) handleBigFish(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	moves, err := s.deps.Scanner.BigFishActivity(r.Context(), address)
	if errors.Is(err, scanner.ErrInvalidAddress) {
		writeError(w, http.StatusBadRequest, "Invalid Solana address")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("token", address).Error("Error fetching big fish activity")
		writeError(w, http.StatusInternalServerError, "Failed to fetch big fish activity")
		return
	}

	writeJSON(w, http.StatusOK, bigFishResponse{
		Success: true,
		Data:    moves,
		Count:   len(moves),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "Scan history is disabled")
		return
	}

	address := mux.Vars(r)["address"]
	if err := solana.ValidateAddress(address); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Solana address")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, storage.MaxHistoryLimit)
	}

	scans, err := s.deps.History.RecentScans(r.Context(), address, limit)
	if err != nil {
		s.log.WithError(err).WithField("token", address).Error("Error reading scan history")
		writeError(w, http.StatusInternalServerError, "Failed to read scan history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Success: true,
		Data:    scans,
		Count:   len(scans),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metrics.RecordHealthCheck(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Pinger.Ping(ctx); err != nil {
			s.log.WithError(err).Warn("Readiness check failed")
			metrics.RecordHealthCheck(false)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	metrics.RecordHealthCheck(true)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decodeBody reads a JSON request body, answering 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
