// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/infra/metrics"
	"ai-creative-suite/internal/infra/redis"
)

const maxWebhookBody = 1 << 20 // 1 MiB

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain sentinels onto HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidSignature):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnknownTransaction),
		errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPaymentTerminal):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// ===== Payments =====

type initiateRequest struct {
	Type        string `json:"type"` // "subscription" | "credits"
	ProductID   string `json:"product_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type initiateResponse struct {
	Payment *model.Payment `json:"payment"`
	PayURL  string         `json:"pay_url"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}
	p, payURL, err := s.paymentUC.Initiate(r.Context(), UserID(r.Context()), model.PaymentType(req.Type), req.ProductID, req.Amount, req.Description)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, initiateResponse{Payment: p, PayURL: payURL})
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	merchantTxID := chi.URLParam(r, "merchantTxID")
	p, err := s.paymentUC.CheckStatus(r.Context(), merchantTxID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if p.UserID != UserID(r.Context()) {
		s.writeErr(w, domain.ErrUnknownTransaction)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type paymentActionRequest struct {
	Action string `json:"action"` // "cancel" | "retry"
}

func (s *Server) handlePaymentAction(w http.ResponseWriter, r *http.Request) {
	merchantTxID := chi.URLParam(r, "merchantTxID")
	var req paymentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}
	userID := UserID(r.Context())

	switch req.Action {
	case "cancel":
		p, err := s.paymentUC.Cancel(r.Context(), userID, merchantTxID)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case "retry":
		p, payURL, err := s.paymentUC.Retry(r.Context(), userID, merchantTxID)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, initiateResponse{Payment: p, PayURL: payURL})
	default:
		s.writeErr(w, domain.ErrInvalidArgument)
	}
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	out, err := s.paymentUC.ListByUser(r.Context(), UserID(r.Context()), limit, offset)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ===== Webhook =====

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.rateLimiter != nil {
		ok, err := s.rateLimiter.Allow(r.Context(), redis.WebhookSourceKey(r.RemoteAddr), s.webhookRate, time.Minute)
		if err == nil && !ok {
			metrics.IncWebhookRejected("rate_limited")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}
	metrics.IncWebhookDelivery()

	p, err := s.paymentUC.HandleCallback(r.Context(), body, r.Header.Get("X-VERIFY"))
	if err != nil {
		if errors.Is(err, domain.ErrGrantFailed) {
			// Settlement is recorded; the sweeper re-drives the grant. Ack so
			// the gateway stops redelivering.
			writeJSON(w, http.StatusOK, p)
			return
		}
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ===== Credits =====

type balanceResponse struct {
	Balance *model.Balance `json:"balance"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	b, err := s.creditUC.GetBalance(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: b})
}

func (s *Server) handleCreditHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	out, err := s.creditUC.GetTransactionHistory(r.Context(), UserID(r.Context()), limit, offset)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type grantRequest struct {
	UserID          string  `json:"user_id"`
	Action          string  `json:"action"` // "add" (default) | "deduct"
	Amount          int64   `json:"amount"`
	Reason          string  `json:"reason"`
	Type            string  `json:"type"` // add only: "bonus" | "adjustment" | "purchase"
	SourcePaymentID *string `json:"source_payment_id,omitempty"`
}

// handleGrantCredits is the service-to-service mutation path (signup bonus,
// support adjustment, clawback). Guarded by the static API key, not user JWTs.
func (s *Server) handleGrantCredits(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}

	if req.Action == "deduct" {
		b, err := s.creditUC.DeductCredits(r.Context(), req.UserID, req.Amount, req.Reason, nil)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{Balance: b})
		return
	}
	if req.Action != "" && req.Action != "add" {
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}

	typ := model.TransactionType(req.Type)
	switch typ {
	case model.TransactionTypeBonus, model.TransactionTypeAdjustment:
	case model.TransactionTypePurchase:
		// Purchase grants must carry the payment they settle, otherwise
		// redelivery of the caller's request would double-count.
		if req.SourcePaymentID == nil {
			s.writeErr(w, domain.ErrInvalidArgument)
			return
		}
	default:
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}
	b, err := s.creditUC.AddCredits(r.Context(), req.UserID, req.Amount, req.Reason, typ, req.SourcePaymentID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, balanceResponse{Balance: b})
}

// ===== Catalog =====

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	out, err := s.planUC.ListPlans(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	out, err := s.planUC.ListPackages(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ===== Subscriptions =====

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.GetActive(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ===== Generations =====

type generationRequest struct {
	Kind   string `json:"kind"` // "image" | "video" | "upscale"
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

func (s *Server) handleRequestGeneration(w http.ResponseWriter, r *http.Request) {
	var req generationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, domain.ErrInvalidArgument)
		return
	}
	g, err := s.genUC.Request(r.Context(), UserID(r.Context()), model.GenerationKind(req.Kind), req.Prompt, req.Model)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, g)
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	g, err := s.genUC.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	out, err := s.genUC.ListByUser(r.Context(), UserID(r.Context()), limit, offset)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ===== Admin =====

type statsResponse struct {
	RevenueWeek  int64 `json:"revenue_week"`
	RevenueMonth int64 `json:"revenue_month"`
	RevenueYear  int64 `json:"revenue_year"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	week, month, year, err := s.statsUC.Revenue(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{RevenueWeek: week, RevenueMonth: month, RevenueYear: year})
}
