package jobcard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/events"
	"github.com/ukydev/autoserve/internal/models"
)

func TestCalculateBill(t *testing.T) {
	f := newFixture(t)

	p := f.svc.CalculateBill(BillingInput{
		SpareParts:   []models.SparePart{{Name: "Brake Pads", Quantity: 2, UnitPrice: 100}},
		ServiceCosts: []models.ServiceCost{{Description: "Labour", Cost: 50}},
		Discount:     10,
		DiscountType: models.DiscountPercentage,
	})

	assert.Equal(t, "250.00", p.Subtotal)
	assert.Equal(t, "25.00", p.Discount)
	assert.Equal(t, 18, p.TaxRate)
	assert.Equal(t, "40.50", p.TaxAmount)
	assert.Equal(t, "265.50", p.GrandTotal)
}

func TestBillingInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   BillingInput
		ok   bool
	}{
		{"empty bill", BillingInput{}, true},
		{"valid lines", BillingInput{
			SpareParts:   []models.SparePart{{Name: "Oil", Quantity: 1, UnitPrice: 0}},
			ServiceCosts: []models.ServiceCost{{Description: "Labour", Cost: 0}},
			DiscountType: models.DiscountFixed,
		}, true},
		{"part without name", BillingInput{SpareParts: []models.SparePart{{Quantity: 1}}}, false},
		{"zero quantity", BillingInput{SpareParts: []models.SparePart{{Name: "Oil"}}}, false},
		{"negative price", BillingInput{SpareParts: []models.SparePart{{Name: "Oil", Quantity: 1, UnitPrice: -1}}}, false},
		{"service without description", BillingInput{ServiceCosts: []models.ServiceCost{{Cost: 10}}}, false},
		{"negative cost", BillingInput{ServiceCosts: []models.ServiceCost{{Description: "x", Cost: -10}}}, false},
		{"negative discount", BillingInput{Discount: -1}, false},
		{"unknown discount type", BillingInput{DiscountType: "bogo"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assertValidation(t, err)
			}
		})
	}
}

func TestUpdateBilling_ReplacesSnapshot(t *testing.T) {
	f := newFixture(t)
	card := f.storedCard()
	card.SpareParts = []models.SparePart{{Name: "Old", Quantity: 9, UnitPrice: 9, Total: 81}}
	f.cards.On("SaveJobCard", mock.Anything, card).Return(nil)

	out, err := f.svc.UpdateBilling(context.Background(), card.ID.Hex(), BillingInput{
		SpareParts:   []models.SparePart{{Name: "Brake Pads", Quantity: 2, UnitPrice: 100}},
		ServiceCosts: []models.ServiceCost{{Description: "Labour", Cost: 50}},
	}, f.actor())

	require.NoError(t, err)
	require.Len(t, out.SpareParts, 1)
	assert.Equal(t, 200.0, out.SpareParts[0].Total)
	assert.Equal(t, 250.0, out.Billing.Subtotal)
	assert.Equal(t, 45.0, out.Billing.TaxAmount)
	assert.Equal(t, 295.0, out.Billing.GrandTotal)
	assert.Equal(t, models.DiscountFixed, out.Billing.DiscountType)
	require.Len(t, out.Logs, 1)
	assert.Equal(t, "Billing information updated", out.Logs[0].Message)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.JobCardBillingUpdated, f.pub.events[0].Name)
}

func TestUpdateBilling_FixedDiscountExceedingSubtotalIsUnclamped(t *testing.T) {
	f := newFixture(t)
	card := f.storedCard()
	f.cards.On("SaveJobCard", mock.Anything, card).Return(nil)

	out, err := f.svc.UpdateBilling(context.Background(), card.ID.Hex(), BillingInput{
		ServiceCosts: []models.ServiceCost{{Description: "Inspection", Cost: 100}},
		Discount:     150,
		DiscountType: models.DiscountFixed,
	}, f.actor())

	require.NoError(t, err)
	assert.Equal(t, 150.0, out.Billing.Discount)
	assert.Equal(t, -9.0, out.Billing.TaxAmount)
	assert.Equal(t, -59.0, out.Billing.GrandTotal)
}

func TestUpdateBilling_InvalidInputNeverLoads(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateBilling(context.Background(), primitive.NewObjectID().Hex(), BillingInput{Discount: -5}, f.actor())

	assertValidation(t, err)
	f.cards.AssertNotCalled(t, "FindJobCardByID", mock.Anything, mock.Anything)
}

func TestUpdatePaymentStatus_RejectsUnknownValue(t *testing.T) {
	f := newFixture(t)
	card := f.storedCard()

	_, err := f.svc.UpdatePaymentStatus(context.Background(), card.ID.Hex(), "refunded", f.actor())

	assertValidation(t, err)
	assert.Equal(t, "Invalid payment status", err.Error())
	assert.Equal(t, models.PaymentPending, card.PaymentStatus)
	assert.Empty(t, card.Logs)
	f.cards.AssertNotCalled(t, "SaveJobCard", mock.Anything, mock.Anything)
}

func TestUpdatePaymentStatus_PaidWithoutInvoice(t *testing.T) {
	f := newFixture(t)
	card := f.storedCard()
	card.AssignedTo = &f.tech.ID
	f.cards.On("SaveJobCard", mock.Anything, card).Return(nil)
	f.notes.On("InsertNotification", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.Type == models.NotifyPaymentReceived && n.User == f.tech.ID
	})).Return(nil).Once()

	out, err := f.svc.UpdatePaymentStatus(context.Background(), card.ID.Hex(), models.PaymentPaid, f.actor())

	require.NoError(t, err)
	assert.Empty(t, out.InvoiceNumber)
	assert.Equal(t, models.PaymentPaid, out.PaymentStatus)
	require.NotNil(t, out.PaymentDate)
	assert.True(t, out.PaymentDate.Equal(f.now))
	assert.Equal(t, "Payment status updated to paid", out.Logs[0].Message)
	f.notes.AssertExpectations(t)
}

func TestUpdatePaymentStatus_Partial(t *testing.T) {
	f := newFixture(t)
	card := f.storedCard()
	f.cards.On("SaveJobCard", mock.Anything, card).Return(nil)

	out, err := f.svc.UpdatePaymentStatus(context.Background(), card.ID.Hex(), models.PaymentPartial, f.actor())

	require.NoError(t, err)
	assert.Nil(t, out.PaymentDate)
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, models.PaymentPartial, f.pub.events[0].PaymentStatus)
}
