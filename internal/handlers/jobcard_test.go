package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/db/mocks"
	"github.com/ukydev/autoserve/internal/events"
	"github.com/ukydev/autoserve/internal/jobcard"
	"github.com/ukydev/autoserve/internal/models"
	"github.com/ukydev/autoserve/internal/notification"
)

type jobCardFixture struct {
	cards   *mocks.JobCardCollection
	users   *mocks.UserCollection
	notes   *mocks.NotificationCollection
	handler *JobCardHandler
	manager *models.User
}

func newJobCardFixture(t *testing.T) *jobCardFixture {
	t.Helper()
	f := &jobCardFixture{
		cards:   new(mocks.JobCardCollection),
		users:   new(mocks.UserCollection),
		notes:   new(mocks.NotificationCollection),
		manager: &models.User{ID: primitive.NewObjectID(), Name: "Admin User", Email: "admin@example.com", Role: models.RoleManager},
	}
	svc, err := jobcard.NewService(f.cards, f.users, notification.NewNotifier(f.notes), events.Nop{}, 2)
	require.NoError(t, err)
	f.handler = NewJobCardHandler(svc)
	f.users.On("FindUsersByIDs", mock.Anything, mock.Anything).Return([]models.User{*f.manager}, nil).Maybe()
	return f
}

func (f *jobCardFixture) stored() *models.JobCard {
	card := models.NewJobCard("JOB-20240315-XYZ", models.Vehicle{
		Type: models.VehicleCar, RegNo: "KA01AB1234", Model: "Swift", OwnerName: "Asha",
	}, []string{"oil leak"})
	card.ID = primitive.NewObjectID()
	card.Version = 1
	f.cards.On("FindJobCardByID", mock.Anything, card.ID.Hex()).Return(card, nil)
	return card
}

func (f *jobCardFixture) request(method, target string, body interface{}, id string, t *testing.T) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, jsonBody(t, body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if id != "" {
		req.SetPathValue("id", id)
	}
	return withClaims(req, f.manager)
}

func TestJobCardHandler_Create(t *testing.T) {
	f := newJobCardFixture(t)
	f.cards.On("InsertJobCard", mock.Anything, mock.AnythingOfType("*models.JobCard")).Return(nil)

	w := httptest.NewRecorder()
	f.handler.Create(w, f.request("POST", "/api/jobcards", map[string]interface{}{
		"vehicle":        map[string]string{"type": "Bike", "regNo": "KA05XY9876", "model": "Pulsar", "ownerName": "Vikram"},
		"reportedIssues": []string{"chain noise"},
	}, "", t))

	assert.Equal(t, http.StatusCreated, w.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "new", out["status"])
	assert.Regexp(t, `^JOB-\d{8}-[0-9A-Z]+$`, out["jobNumber"])
}

func TestJobCardHandler_CreateMissingVehicle(t *testing.T) {
	f := newJobCardFixture(t)

	w := httptest.NewRecorder()
	f.handler.Create(w, f.request("POST", "/api/jobcards", map[string]interface{}{}, "", t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"msg":"Vehicle details are required"}`, w.Body.String())
}

func TestJobCardHandler_GetNotFound(t *testing.T) {
	f := newJobCardFixture(t)
	id := primitive.NewObjectID().Hex()
	f.cards.On("FindJobCardByID", mock.Anything, id).Return(nil, db.ErrNotFound)

	w := httptest.NewRecorder()
	f.handler.Get(w, f.request("GET", "/api/jobcards/"+id, nil, id, t))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"msg":"Job card not found"}`, w.Body.String())
}

func TestJobCardHandler_GetInvalidID(t *testing.T) {
	f := newJobCardFixture(t)
	f.cards.On("FindJobCardByID", mock.Anything, "nope").Return(nil, db.ErrInvalidID)

	w := httptest.NewRecorder()
	f.handler.Get(w, f.request("GET", "/api/jobcards/nope", nil, "nope", t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobCardHandler_UpdateInvalidStatus(t *testing.T) {
	f := newJobCardFixture(t)
	card := f.stored()

	w := httptest.NewRecorder()
	f.handler.Update(w, f.request("PUT", "/api/jobcards/"+card.ID.Hex(), map[string]string{"status": "exploded"}, card.ID.Hex(), t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.cards.AssertNotCalled(t, "SaveJobCard", mock.Anything, mock.Anything)
}

func TestJobCardHandler_UpdateVersionConflict(t *testing.T) {
	f := newJobCardFixture(t)
	card := f.stored()
	f.cards.On("SaveJobCard", mock.Anything, card).Return(db.ErrVersionConflict)

	w := httptest.NewRecorder()
	f.handler.Update(w, f.request("PUT", "/api/jobcards/"+card.ID.Hex(), map[string]string{"status": "in_progress"}, card.ID.Hex(), t))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"msg":"Job card was modified concurrently"}`, w.Body.String())
}

func TestJobCardHandler_Delete(t *testing.T) {
	f := newJobCardFixture(t)
	card := f.stored()
	f.cards.On("DeleteJobCard", mock.Anything, card.ID.Hex()).Return(nil)

	w := httptest.NewRecorder()
	f.handler.Delete(w, f.request("DELETE", "/api/jobcards/"+card.ID.Hex(), nil, card.ID.Hex(), t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"Job card deleted successfully","jobNumber":"JOB-20240315-XYZ"}`, w.Body.String())
}

func TestJobCardHandler_CalculateBill(t *testing.T) {
	f := newJobCardFixture(t)

	w := httptest.NewRecorder()
	f.handler.CalculateBill(w, f.request("POST", "/api/jobcards/x/billing/calculate", map[string]interface{}{
		"spareParts":   []map[string]interface{}{{"name": "Brake Pads", "quantity": 2, "unitPrice": 100}},
		"serviceCosts": []map[string]interface{}{{"description": "Labour", "cost": 50}},
		"discount":     10,
		"discountType": "percentage",
	}, "x", t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subtotal":"250.00","discount":"25.00","taxRate":18,"taxAmount":"40.50","grandTotal":"265.50"}`, w.Body.String())
	f.cards.AssertNotCalled(t, "FindJobCardByID", mock.Anything, mock.Anything)
}

func TestJobCardHandler_UpdateBilling(t *testing.T) {
	f := newJobCardFixture(t)
	card := f.stored()
	f.cards.On("SaveJobCard", mock.Anything, card).Return(nil)

	w := httptest.NewRecorder()
	f.handler.UpdateBilling(w, f.request("PUT", "/api/jobcards/"+card.ID.Hex()+"/billing", map[string]interface{}{
		"serviceCosts": []map[string]interface{}{{"description": "Inspection", "cost": 100}},
	}, card.ID.Hex(), t))

	assert.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Msg     string         `json:"msg"`
		JobCard models.JobCard `json:"jobCard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Billing updated successfully", out.Msg)
	assert.Equal(t, 118.0, out.JobCard.Billing.GrandTotal)
}

func TestJobCardHandler_UpdatePaymentStatus(t *testing.T) {
	f := newJobCardFixture(t)
	card := f.stored()
	f.cards.On("SaveJobCard", mock.Anything, card).Return(nil)

	w := httptest.NewRecorder()
	f.handler.UpdatePaymentStatus(w, f.request("PATCH", "/api/jobcards/"+card.ID.Hex()+"/payment-status",
		map[string]string{"paymentStatus": "paid"}, card.ID.Hex(), t))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"msg":"Payment status updated"`)
	assert.Equal(t, models.PaymentPaid, card.PaymentStatus)
}

func TestJobCardHandler_UpdatePaymentStatusInvalid(t *testing.T) {
	f := newJobCardFixture(t)
	id := primitive.NewObjectID().Hex()

	w := httptest.NewRecorder()
	f.handler.UpdatePaymentStatus(w, f.request("PATCH", "/api/jobcards/"+id+"/payment-status",
		map[string]string{"paymentStatus": "refunded"}, id, t))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"msg":"Invalid payment status"}`, w.Body.String())
}

func TestJobCardHandler_InvalidJSON(t *testing.T) {
	f := newJobCardFixture(t)
	req := withClaims(httptest.NewRequest("POST", "/api/jobcards", strings.NewReader("{")), f.manager)

	w := httptest.NewRecorder()
	f.handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobCardHandler_Invoice(t *testing.T) {
	f := newJobCardFixture(t)
	card := f.stored()
	card.SetStatus(models.StatusDone, time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC))

	w := httptest.NewRecorder()
	f.handler.Invoice(w, f.request("GET", "/api/jobcards/"+card.ID.Hex()+"/invoice", nil, card.ID.Hex(), t))

	assert.Equal(t, http.StatusOK, w.Code)
	var out struct {
		JobNumber     string `json:"jobNumber"`
		InvoiceNumber string `json:"invoiceNumber"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "JOB-20240315-XYZ", out.JobNumber)
	assert.Regexp(t, `^INV-\d{6}$`, out.InvoiceNumber)
}
