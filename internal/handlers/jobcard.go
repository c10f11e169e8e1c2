package handlers

import (
	"net/http"

	"github.com/ukydev/autoserve/internal/jobcard"
	"github.com/ukydev/autoserve/internal/models"
)

const jobCardNotFound = "Job card not found"

// JobCardHandler serves job-card, billing and payment requests.
type JobCardHandler struct {
	jobCards *jobcard.Service
}

// NewJobCardHandler creates a new job card handler
func NewJobCardHandler(jobCards *jobcard.Service) *JobCardHandler {
	return &JobCardHandler{jobCards: jobCards}
}

// List returns every job card, newest first.
func (h *JobCardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.jobCards.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error fetching job cards")
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// Get returns one populated job card.
func (h *JobCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.jobCards.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error fetching job card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Create opens a new job card.
func (h *JobCardHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var in jobcard.CreateInput
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	card, err := h.jobCards.Create(r.Context(), in, claims)
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error creating job card")
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// Update applies a general update.
func (h *JobCardHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var in jobcard.UpdateInput
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	card, err := h.jobCards.Update(r.Context(), r.PathValue("id"), in, claims)
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error updating job card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Delete removes a job card.
func (h *JobCardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	jobNumber, err := h.jobCards.Delete(r.Context(), r.PathValue("id"), claims)
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error deleting job card")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"msg":       "Job card deleted successfully",
		"jobNumber": jobNumber,
	})
}

// CalculateBill previews billing totals without saving anything.
func (h *JobCardHandler) CalculateBill(w http.ResponseWriter, r *http.Request) {
	var in jobcard.BillingInput
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, h.jobCards.CalculateBill(in))
}

// UpdateBilling replaces the card's billing lines and snapshot.
func (h *JobCardHandler) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var in jobcard.BillingInput
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	card, err := h.jobCards.UpdateBilling(r.Context(), r.PathValue("id"), in, claims)
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error updating billing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":     "Billing updated successfully",
		"jobCard": card,
	})
}

// Invoice returns the populated card for invoice rendering.
func (h *JobCardHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	card, err := h.jobCards.Invoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error fetching invoice")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// UpdatePaymentStatus records the payment state of a card.
func (h *JobCardHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	var in struct {
		PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	}
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	card, err := h.jobCards.UpdatePaymentStatus(r.Context(), r.PathValue("id"), in.PaymentStatus, claims)
	if err != nil {
		writeServiceError(w, r, err, jobCardNotFound, "Server error updating payment status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"msg":     "Payment status updated",
		"jobCard": card,
	})
}
