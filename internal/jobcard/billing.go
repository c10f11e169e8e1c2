package jobcard

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/billing"
	"github.com/ukydev/autoserve/internal/events"
	"github.com/ukydev/autoserve/internal/models"
)

// BillingInput is the body of the billing calculate and update requests.
type BillingInput struct {
	SpareParts   []models.SparePart   `json:"spareParts"`
	ServiceCosts []models.ServiceCost `json:"serviceCosts"`
	Discount     float64              `json:"discount"`
	DiscountType models.DiscountType  `json:"discountType"`
}

// Validate checks every line and the discount fields.
func (in BillingInput) Validate() error {
	if err := validateParts(in.SpareParts); err != nil {
		return err
	}
	for _, c := range in.ServiceCosts {
		if strings.TrimSpace(c.Description) == "" {
			return invalid("Service description is required")
		}
		if c.Cost < 0 {
			return invalid("Service cost cannot be negative")
		}
	}
	if in.Discount < 0 {
		return invalid("Discount cannot be negative")
	}
	switch in.DiscountType {
	case "", models.DiscountFixed, models.DiscountPercentage:
	default:
		return invalid("Invalid discount type")
	}
	return nil
}

// CalculateBill previews the totals for in without touching any job card.
func (s *Service) CalculateBill(in BillingInput) billing.Preview {
	return billing.Calculate(in.SpareParts, in.ServiceCosts, in.Discount, in.DiscountType).Preview()
}

// UpdateBilling replaces the card's parts, service costs and billing snapshot.
func (s *Service) UpdateBilling(ctx context.Context, id string, in BillingInput, actor *models.Claims) (*models.JobCard, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	card, err := s.cards.FindJobCardByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find job card")
	}

	parts := withLineTotals(in.SpareParts)
	costs := in.ServiceCosts
	if costs == nil {
		costs = []models.ServiceCost{}
	}
	summary := billing.Calculate(parts, costs, in.Discount, in.DiscountType)

	card.SpareParts = parts
	card.ServiceCosts = costs
	card.Billing = summary.Snapshot(in.DiscountType)
	card.AppendLog(actorID(actor), "Billing information updated", s.now())

	if err := s.cards.SaveJobCard(ctx, card); err != nil {
		return nil, errors.Wrap(err, "save job card billing")
	}
	log.WithFields(log.Fields{
		"job_number":  card.JobNumber,
		"grand_total": card.Billing.GrandTotal,
	}).Info("Billing updated")
	events.Emit(ctx, s.publisher, events.NewJobCardEvent(events.JobCardBillingUpdated, card, actor))

	return card, nil
}

// Invoice returns the job card as needed to render an invoice.
func (s *Service) Invoice(ctx context.Context, id string) (*View, error) {
	return s.Get(ctx, id)
}

// UpdatePaymentStatus records a payment state. It does not require an invoice.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, actor *models.Claims) (*models.JobCard, error) {
	if !models.IsValidPaymentStatus(status) {
		return nil, invalid("Invalid payment status")
	}
	card, err := s.cards.FindJobCardByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find job card")
	}

	now := s.now()
	card.SetPaymentStatus(status, now)
	card.AppendLog(actorID(actor), fmt.Sprintf("Payment status updated to %s", status), now)

	if err := s.cards.SaveJobCard(ctx, card); err != nil {
		return nil, errors.Wrap(err, "save payment status")
	}
	log.WithFields(log.Fields{"job_number": card.JobNumber, "payment_status": status}).Info("Payment status updated")

	if status == models.PaymentPaid {
		s.notifyAssignee(ctx, card, actor, models.NotifyPaymentReceived, "Payment Received",
			fmt.Sprintf("Payment received for job card %s", card.JobNumber))
	}
	events.Emit(ctx, s.publisher, events.NewJobCardEvent(events.JobCardPaymentUpdated, card, actor))

	return card, nil
}
