package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/pkg/httputil"
)

// generateRequest is the body for POST /api/content/generate. The decision
// normally comes straight out of a plan run.
type generateRequest struct {
	Customer domain.CustomerProfile `json:"customer"`
	Decision domain.EmailDecision   `json:"decision"`
	Now      time.Time              `json:"now,omitempty"`
}

// GenerateContent produces subject and body text for one decision.
//
//	POST /api/content/generate
func (h *Handlers) GenerateContent(w http.ResponseWriter, r *http.Request) {
	if h.Content == nil {
		httputil.Unavailable(w, "content generation not configured")
		return
	}

	var req generateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Customer.ID == "" {
		httputil.BadRequest(w, "customer is required")
		return
	}
	if req.Decision.EmailType == domain.EmailSkip || !req.Decision.EmailType.Valid() {
		httputil.BadRequest(w, "decision has no sendable email type")
		return
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ec, err := h.Content.Generate(r.Context(), req.Customer, req.Decision, now)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, ec)
}

// recordSendRequest is the body for POST /api/ledger/sends.
type recordSendRequest struct {
	CustomerID string           `json:"customer_id"`
	EmailType  domain.EmailType `json:"email_type"`
	SentAt     time.Time        `json:"sent_at,omitempty"`
}

// RecordSend books a completed send into the relationship ledger.
//
//	POST /api/ledger/sends
func (h *Handlers) RecordSend(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		httputil.Unavailable(w, "ledger not configured")
		return
	}

	var req recordSendRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		httputil.BadRequest(w, "customer_id is required")
		return
	}
	sentAt := req.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	if err := h.Ledger.RecordSend(r.Context(), req.CustomerID, req.EmailType, sentAt); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, map[string]interface{}{
		"customer_id": req.CustomerID,
		"email_type":  req.EmailType,
		"sent_at":     sentAt,
		"impact":      req.EmailType.BalanceImpact(),
	})
}

// LedgerHistory returns the recent send records for a customer.
//
//	GET /api/ledger/{customerID}/history
func (h *Handlers) LedgerHistory(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		httputil.Unavailable(w, "ledger not configured")
		return
	}
	records, err := h.Ledger.History(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, records)
}

// LedgerBalance returns a customer's current engagement balance.
//
//	GET /api/ledger/{customerID}/balance
func (h *Handlers) LedgerBalance(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		httputil.Unavailable(w, "ledger not configured")
		return
	}
	customerID := chi.URLParam(r, "customerID")
	balance, err := h.Ledger.Balance(r.Context(), customerID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"customer_id": customerID,
		"balance":     balance,
	})
}
