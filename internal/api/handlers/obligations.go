package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/ledgerboard/internal/api/middleware"
	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/gateway"
	"github.com/dvloznov/ledgerboard/internal/jobs"
	"github.com/dvloznov/ledgerboard/internal/schedule"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const dateFormat = "2006-01-02"

// ObligationsHandler manages recurring payments and bill reminders. Creating
// and deleting obligations goes straight to the gateway; processing goes
// through the scheduling saga, either directly (bills) or via the job queue
// (recurring payments).
type ObligationsHandler struct {
	gw        gateway.Ledger
	processor *schedule.Processor
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewObligationsHandler creates a new obligations handler.
func NewObligationsHandler(gw gateway.Ledger, processor *schedule.Processor, publisher jobs.Publisher, log zerolog.Logger) *ObligationsHandler {
	return &ObligationsHandler{
		gw:        gw,
		processor: processor,
		publisher: publisher,
		log:       log,
	}
}

// ListRecurring handles GET /api/recurring
func (h *ObligationsHandler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	payments, err := h.gw.Recurring.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recurring payments")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to list recurring payments")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"recurring_payments": payments,
		"count":              len(payments),
	})
}

type recurringRequest struct {
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	Category    domain.Category  `json:"category"`
	Frequency   domain.Frequency `json:"frequency"`
	NextDate    string           `json:"next_date"`
}

// CreateRecurring handles POST /api/recurring
func (h *ObligationsHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	var req recurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	nextDate, err := time.Parse(dateFormat, req.NextDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid next_date format, want YYYY-MM-DD")
		return
	}

	payment := domain.RecurringPayment{
		OwnerID:     ownerID,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Frequency:   req.Frequency,
		NextDate:    nextDate,
	}
	if err := payment.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.gw.Recurring.Create(r.Context(), payment)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create recurring payment")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to create recurring payment")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, created)
}

// DeleteRecurring handles DELETE /api/recurring/{id}
func (h *ObligationsHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.gw.Recurring.Delete(r.Context(), id); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Recurring payment not found")
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete recurring payment")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to delete recurring payment")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ProcessRecurring handles POST /api/recurring/{id}/process
// Processing is asynchronous: the job is enqueued and its id returned.
func (h *ObligationsHandler) ProcessRecurring(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	id := r.PathValue("id")

	job := &jobs.ObligationJob{
		OwnerID:      ownerID,
		Kind:         jobs.ObligationRecurring,
		ObligationID: id,
	}
	if err := h.publisher.PublishObligation(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to enqueue obligation job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue processing job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("payment_id", id).Msg("Obligation job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"payment_id": id,
		"status":     string(job.Status),
	})
}

// ListBills handles GET /api/bills
func (h *ObligationsHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	bills, err := h.gw.Bills.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list bill reminders")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to list bill reminders")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bill_reminders": bills,
		"count":          len(bills),
	})
}

type billRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"due_date"`
	Category    domain.Category `json:"category"`
}

// CreateBill handles POST /api/bills
func (h *ObligationsHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())

	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dueDate, err := time.Parse(dateFormat, req.DueDate)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid due_date format, want YYYY-MM-DD")
		return
	}

	bill := domain.BillReminder{
		OwnerID:     ownerID,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     dueDate,
		Category:    req.Category,
	}
	if err := bill.Validate(); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.gw.Bills.Create(r.Context(), bill)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create bill reminder")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to create bill reminder")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, created)
}

// DeleteBill handles DELETE /api/bills/{id}
// Bills are deletable in either paid state.
func (h *ObligationsHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.gw.Bills.Delete(r.Context(), id); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Bill reminder not found")
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete bill reminder")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to delete bill reminder")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// PayBill handles POST /api/bills/{id}/pay
func (h *ObligationsHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.OwnerFromContext(r.Context())
	id := r.PathValue("id")

	bill, err := h.processor.MarkBillAsPaid(r.Context(), ownerID, id)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrBillNotFound):
			middleware.WriteError(w, http.StatusNotFound, "Bill reminder not found")
		case errors.Is(err, schedule.ErrAlreadyPaid):
			middleware.WriteError(w, http.StatusConflict, "Bill is already paid")
		default:
			h.log.Error().Err(err).Str("id", id).Msg("Failed to mark bill as paid")
			middleware.WriteError(w, http.StatusBadGateway, "Failed to mark bill as paid")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, bill)
}
