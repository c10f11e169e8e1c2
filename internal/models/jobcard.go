package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobStatus is the lifecycle state of a job card.
type JobStatus string

const (
	StatusNew           JobStatus = "new"
	StatusInProgress    JobStatus = "in_progress"
	StatusAwaitingParts JobStatus = "awaiting_parts"
	StatusDone          JobStatus = "done"
	StatusClosed        JobStatus = "closed"
)

// IsValidJobStatus checks if a status is one of the lifecycle states.
func IsValidJobStatus(s JobStatus) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusAwaitingParts, StatusDone, StatusClosed:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks settlement of a job card's invoice.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// IsValidPaymentStatus checks if a payment status is known.
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	default:
		return false
	}
}

// VehicleType is the kind of vehicle brought in for service.
type VehicleType string

const (
	VehicleCar  VehicleType = "Car"
	VehicleBike VehicleType = "Bike"
)

// DiscountType selects how Billing.Discount is interpreted on input.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// TaxRate is the GST percentage applied after discount.
const TaxRate = 18

// Vehicle describes the vehicle on a job card.
type Vehicle struct {
	Type      VehicleType `bson:"type" json:"type"`
	RegNo     string      `bson:"regNo" json:"regNo"`
	Model     string      `bson:"model" json:"model"`
	OwnerName string      `bson:"ownerName" json:"ownerName"`
	Contact   string      `bson:"contact,omitempty" json:"contact,omitempty"`
	KmReading float64     `bson:"kmReading,omitempty" json:"kmReading,omitempty"`
}

// SparePart is a billed part line.
type SparePart struct {
	Name       string  `bson:"name" json:"name"`
	PartNumber string  `bson:"partNumber,omitempty" json:"partNumber,omitempty"`
	Quantity   int     `bson:"quantity" json:"quantity"`
	UnitPrice  float64 `bson:"unitPrice" json:"unitPrice"`
	Total      float64 `bson:"total" json:"total"`
}

// ServiceCost is a billed labour or service line.
type ServiceCost struct {
	Description string  `bson:"description" json:"description"`
	Cost        float64 `bson:"cost" json:"cost"`
}

// Billing is the derived billing snapshot. It is replaced wholesale on every billing update.
type Billing struct {
	Subtotal     float64      `bson:"subtotal" json:"subtotal"`
	TaxRate      float64      `bson:"taxRate" json:"taxRate"`
	TaxAmount    float64      `bson:"taxAmount" json:"taxAmount"`
	Discount     float64      `bson:"discount" json:"discount"`
	DiscountType DiscountType `bson:"discountType" json:"discountType"`
	GrandTotal   float64      `bson:"grandTotal" json:"grandTotal"`
}

// LogEntry is one audit trail record. Entries are only ever appended.
type LogEntry struct {
	By      primitive.ObjectID `bson:"by,omitempty" json:"by,omitempty"`
	Message string             `bson:"message" json:"message"`
	At      time.Time          `bson:"at" json:"at"`
}

// JobCard represents a single vehicle service work order.
type JobCard struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	JobNumber      string              `bson:"jobNumber" json:"jobNumber"`
	Vehicle        Vehicle             `bson:"vehicle" json:"vehicle"`
	ReportedIssues []string            `bson:"reportedIssues" json:"reportedIssues"`
	AssignedTo     *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Status         JobStatus           `bson:"status" json:"status"`

	SpareParts   []SparePart   `bson:"spareParts" json:"spareParts"`
	ServiceCosts []ServiceCost `bson:"serviceCosts" json:"serviceCosts"`
	Billing      Billing       `bson:"billing" json:"billing"`

	InvoiceNumber string        `bson:"invoiceNumber,omitempty" json:"invoiceNumber,omitempty"`
	InvoiceDate   *time.Time    `bson:"invoiceDate,omitempty" json:"invoiceDate,omitempty"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentDate   *time.Time    `bson:"paymentDate,omitempty" json:"paymentDate,omitempty"`

	LabourCharges     *float64 `bson:"labourCharges,omitempty" json:"labourCharges,omitempty"`
	CompletionSummary string   `bson:"completionSummary,omitempty" json:"completionSummary,omitempty"`

	Logs []LogEntry `bson:"logs" json:"logs"`

	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewJobCard returns a job card in its initial state.
func NewJobCard(jobNumber string, vehicle Vehicle, issues []string) *JobCard {
	if issues == nil {
		issues = []string{}
	}
	return &JobCard{
		JobNumber:      jobNumber,
		Vehicle:        vehicle,
		ReportedIssues: issues,
		Status:         StatusNew,
		SpareParts:     []SparePart{},
		ServiceCosts:   []ServiceCost{},
		Billing:        Billing{TaxRate: TaxRate, DiscountType: DiscountFixed},
		PaymentStatus:  PaymentPending,
		Logs:           []LogEntry{},
	}
}

// SetStatus writes status and, the first time the card enters done without an invoice,
// assigns the invoice number and date. It reports whether an invoice was assigned.
func (j *JobCard) SetStatus(status JobStatus, now time.Time) bool {
	j.Status = status
	if status != StatusDone || j.InvoiceNumber != "" {
		return false
	}
	j.InvoiceNumber = InvoiceNumberAt(now)
	invoiceDate := now
	j.InvoiceDate = &invoiceDate
	return true
}

// SetPaymentStatus records a payment state; paid also stamps the payment date.
func (j *JobCard) SetPaymentStatus(status PaymentStatus, now time.Time) {
	j.PaymentStatus = status
	if status == PaymentPaid {
		paid := now
		j.PaymentDate = &paid
	}
}

// AppendLog adds an audit entry attributed to by.
func (j *JobCard) AppendLog(by primitive.ObjectID, message string, at time.Time) {
	j.Logs = append(j.Logs, LogEntry{By: by, Message: message, At: at})
}

// InvoiceNumberAt derives an invoice number from the last six digits of the unix millisecond clock.
func InvoiceNumberAt(t time.Time) string {
	return fmt.Sprintf("INV-%06d", t.UnixMilli()%1000000)
}
