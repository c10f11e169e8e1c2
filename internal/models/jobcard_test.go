package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewJobCard_InitialState(t *testing.T) {
	card := NewJobCard("JOB-20240101-abc", Vehicle{Type: VehicleCar, RegNo: "KA01AB1234"}, nil)

	assert.Equal(t, StatusNew, card.Status)
	assert.Equal(t, PaymentPending, card.PaymentStatus)
	assert.Equal(t, DiscountFixed, card.Billing.DiscountType)
	assert.Equal(t, float64(TaxRate), card.Billing.TaxRate)
	assert.Empty(t, card.InvoiceNumber)
	assert.NotNil(t, card.ReportedIssues)
	assert.NotNil(t, card.Logs)
}

func TestJobCard_SetStatus_AssignsInvoiceOnDone(t *testing.T) {
	card := NewJobCard("JOB-1", Vehicle{}, nil)
	now := time.UnixMilli(1700000123456)

	assigned := card.SetStatus(StatusInProgress, now)
	assert.False(t, assigned)
	assert.Empty(t, card.InvoiceNumber)

	assigned = card.SetStatus(StatusDone, now)
	assert.True(t, assigned)
	assert.Equal(t, "INV-123456", card.InvoiceNumber)
	if assert.NotNil(t, card.InvoiceDate) {
		assert.True(t, card.InvoiceDate.Equal(now))
	}
}

func TestJobCard_SetStatus_NeverOverwritesInvoice(t *testing.T) {
	card := NewJobCard("JOB-1", Vehicle{}, nil)
	first := time.UnixMilli(1700000000001)
	card.SetStatus(StatusDone, first)
	invoice := card.InvoiceNumber

	card.SetStatus(StatusInProgress, first.Add(time.Hour))
	assigned := card.SetStatus(StatusDone, first.Add(2*time.Hour))

	assert.False(t, assigned)
	assert.Equal(t, invoice, card.InvoiceNumber)
	assert.True(t, card.InvoiceDate.Equal(first))
}

func TestJobCard_SetPaymentStatus(t *testing.T) {
	card := NewJobCard("JOB-1", Vehicle{}, nil)
	now := time.Now()

	card.SetPaymentStatus(PaymentPartial, now)
	assert.Equal(t, PaymentPartial, card.PaymentStatus)
	assert.Nil(t, card.PaymentDate)

	card.SetPaymentStatus(PaymentPaid, now)
	assert.Equal(t, PaymentPaid, card.PaymentStatus)
	assert.NotNil(t, card.PaymentDate)
}

func TestJobCard_AppendLog(t *testing.T) {
	card := NewJobCard("JOB-1", Vehicle{}, nil)
	actor := primitive.NewObjectID()

	card.AppendLog(actor, "Job card created", time.Now())
	card.AppendLog(actor, "Billing information updated", time.Now())

	assert.Len(t, card.Logs, 2)
	assert.Equal(t, "Job card created", card.Logs[0].Message)
	assert.Equal(t, actor, card.Logs[1].By)
}

func TestInvoiceNumberAt_PadsToSixDigits(t *testing.T) {
	n := InvoiceNumberAt(time.UnixMilli(1700000000042))
	assert.Equal(t, "INV-000042", n)
	assert.True(t, strings.HasPrefix(n, "INV-"))
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, IsValidJobStatus(StatusAwaitingParts))
	assert.False(t, IsValidJobStatus("cancelled"))
	assert.True(t, IsValidPaymentStatus(PaymentPaid))
	assert.False(t, IsValidPaymentStatus("refunded"))
}
