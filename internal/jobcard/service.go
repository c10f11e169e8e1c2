// Package jobcard implements the job-card lifecycle: creation, assignment,
// status and invoice transitions, billing and payment state.
package jobcard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/billing"
	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/events"
	"github.com/ukydev/autoserve/internal/models"
	"github.com/ukydev/autoserve/internal/notification"
)

// Service coordinates job-card persistence, notifications and events.
type Service struct {
	cards     db.JobCardCollection
	users     db.UserCollection
	notifier  *notification.Notifier
	publisher events.Publisher
	node      *snowflake.Node
	now       func() time.Time
}

// NewService wires a Service. nodeID identifies this process in job-number suffixes.
func NewService(cards db.JobCardCollection, users db.UserCollection, notifier *notification.Notifier, publisher events.Publisher, nodeID int64) (*Service, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "create snowflake node")
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		cards:     cards,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		node:      node,
		now:       time.Now,
	}, nil
}

// NextJobNumber returns JOB-YYYYMMDD-<suffix>, the suffix being a base36 snowflake id.
func (s *Service) NextJobNumber() string {
	return fmt.Sprintf("JOB-%s-%s", s.now().Format("20060102"), strings.ToUpper(s.node.Generate().Base36()))
}

// OptionalID distinguishes an absent JSON field from null or "".
type OptionalID struct {
	Present bool
	Value   string
}

// UnmarshalJSON marks the field present and accepts a string or null.
func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Present = true
	if string(b) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Vehicle        models.Vehicle `json:"vehicle"`
	ReportedIssues []string       `json:"reportedIssues"`
	AssignedTo     string         `json:"assignedTo"`
}

// UpdateInput is the body of a general update. Nil fields are left unchanged.
type UpdateInput struct {
	Status            *models.JobStatus   `json:"status"`
	AssignedTo        OptionalID          `json:"assignedTo"`
	SpareParts        *[]models.SparePart `json:"spareParts"`
	LabourCharges     *float64            `json:"labourCharges"`
	CompletionSummary *string             `json:"completionSummary"`
	Notes             string              `json:"notes"`
}

// Create validates and stores a new job card in status new.
func (s *Service) Create(ctx context.Context, in CreateInput, actor *models.Claims) (*View, error) {
	v := in.Vehicle
	if strings.TrimSpace(v.RegNo) == "" || strings.TrimSpace(v.Model) == "" || strings.TrimSpace(v.OwnerName) == "" {
		return nil, invalid("Vehicle details are required")
	}
	if v.Type != models.VehicleCar && v.Type != models.VehicleBike {
		return nil, invalid("Vehicle type must be Car or Bike")
	}

	card := models.NewJobCard(s.NextJobNumber(), v, in.ReportedIssues)
	var assignee *models.User
	if in.AssignedTo != "" {
		tech, err := s.technician(ctx, in.AssignedTo)
		if err != nil {
			return nil, err
		}
		card.AssignedTo = &tech.ID
		assignee = tech
	}
	card.AppendLog(actorID(actor), "Job card created", s.now())

	if err := s.cards.InsertJobCard(ctx, card); err != nil {
		return nil, errors.Wrap(err, "insert job card")
	}
	log.WithFields(log.Fields{"job_number": card.JobNumber, "actor": actorName(actor)}).Info("Job card created")

	if assignee != nil {
		s.notifyAssignee(ctx, card, actor, models.NotifyJobAssigned, "New Job Assigned",
			fmt.Sprintf("You have been assigned to job card %s (%s)", card.JobNumber, card.Vehicle.RegNo))
	}
	events.Emit(ctx, s.publisher, events.NewJobCardEvent(events.JobCardCreated, card, actor))

	return s.populateOne(ctx, card)
}

// List returns every job card, newest first.
func (s *Service) List(ctx context.Context) ([]View, error) {
	cards, err := s.cards.FindJobCards(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "find job cards")
	}
	return s.populate(ctx, cards...)
}

// Get returns one job card.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	card, err := s.cards.FindJobCardByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find job card")
	}
	return s.populateOne(ctx, card)
}

// Update applies a partial update, appending exactly one log entry. Entering done
// assigns the invoice number once.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, actor *models.Claims) (*View, error) {
	if in.Status != nil && !models.IsValidJobStatus(*in.Status) {
		return nil, invalid("Invalid status")
	}
	if in.SpareParts != nil {
		if err := validateParts(*in.SpareParts); err != nil {
			return nil, err
		}
	}
	if in.LabourCharges != nil && *in.LabourCharges < 0 {
		return nil, invalid("Labour charges cannot be negative")
	}

	card, err := s.cards.FindJobCardByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find job card")
	}

	now := s.now()
	var changes []string
	statusChanged, assigned := false, false

	if in.Status != nil && *in.Status != card.Status {
		card.SetStatus(*in.Status, now)
		statusChanged = true
		changes = append(changes, "Status: "+string(*in.Status))
	}

	if in.AssignedTo.Present {
		if in.AssignedTo.Value == "" {
			if card.AssignedTo != nil {
				card.AssignedTo = nil
				changes = append(changes, "Unassigned")
			}
		} else {
			tech, err := s.technician(ctx, in.AssignedTo.Value)
			if err != nil {
				return nil, err
			}
			if card.AssignedTo == nil || *card.AssignedTo != tech.ID {
				card.AssignedTo = &tech.ID
				assigned = true
				changes = append(changes, "Assigned to "+tech.Name)
			}
		}
	}

	if in.SpareParts != nil {
		card.SpareParts = withLineTotals(*in.SpareParts)
		changes = append(changes, "Spare parts updated")
	}
	if in.LabourCharges != nil {
		card.LabourCharges = in.LabourCharges
		changes = append(changes, "Labour charges updated")
	}
	if in.CompletionSummary != nil {
		card.CompletionSummary = *in.CompletionSummary
		changes = append(changes, "Completion summary updated")
	}

	card.AppendLog(actorID(actor), updateMessage(in.Notes, changes), now)

	if err := s.cards.SaveJobCard(ctx, card); err != nil {
		return nil, errors.Wrap(err, "save job card")
	}
	log.WithFields(log.Fields{"job_number": card.JobNumber, "status": card.Status, "actor": actorName(actor)}).Info("Job card updated")

	switch {
	case assigned:
		s.notifyAssignee(ctx, card, actor, models.NotifyJobAssigned, "New Job Assigned",
			fmt.Sprintf("You have been assigned to job card %s (%s)", card.JobNumber, card.Vehicle.RegNo))
	case statusChanged:
		s.notifyAssignee(ctx, card, actor, models.NotifyStatusChanged, "Job Status Updated",
			fmt.Sprintf("Job card %s status changed to %s", card.JobNumber, card.Status))
	case len(changes) > 0:
		s.notifyAssignee(ctx, card, actor, models.NotifyJobUpdated, "Job Card Updated",
			fmt.Sprintf("Job card %s was updated", card.JobNumber))
	}
	events.Emit(ctx, s.publisher, events.NewJobCardEvent(events.JobCardUpdated, card, actor))

	return s.populateOne(ctx, card)
}

// Delete removes a job card and returns its job number. Role checks happen at the route.
func (s *Service) Delete(ctx context.Context, id string, actor *models.Claims) (string, error) {
	card, err := s.cards.FindJobCardByID(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "find job card")
	}
	if err := s.cards.DeleteJobCard(ctx, id); err != nil {
		return "", errors.Wrap(err, "delete job card")
	}
	log.WithFields(log.Fields{"job_number": card.JobNumber, "actor": actorName(actor)}).Info("Job card deleted")
	events.Emit(ctx, s.publisher, events.NewJobCardEvent(events.JobCardDeleted, card, actor))
	return card.JobNumber, nil
}

func (s *Service) technician(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
			return nil, invalid("Assigned user must be an existing technician")
		}
		return nil, errors.Wrap(err, "find assignee")
	}
	if user.Role != models.RoleTechnician {
		return nil, invalid("Assigned user must be an existing technician")
	}
	return user, nil
}

func (s *Service) notifyAssignee(ctx context.Context, card *models.JobCard, actor *models.Claims, typ models.NotificationType, title, message string) {
	if card.AssignedTo == nil || *card.AssignedTo == actorID(actor) {
		return
	}
	s.notifier.Notify(ctx, *card.AssignedTo, typ, title, message, &card.ID)
}

func updateMessage(notes string, changes []string) string {
	if notes = strings.TrimSpace(notes); notes != "" {
		return notes
	}
	if len(changes) == 0 {
		return "Job card updated"
	}
	return "Job card updated - " + strings.Join(changes, ", ")
}

func validateParts(parts []models.SparePart) error {
	for _, p := range parts {
		if strings.TrimSpace(p.Name) == "" {
			return invalid("Spare part name is required")
		}
		if p.Quantity < 1 {
			return invalid("Spare part quantity must be at least 1")
		}
		if p.UnitPrice < 0 {
			return invalid("Spare part unit price cannot be negative")
		}
	}
	return nil
}

func withLineTotals(parts []models.SparePart) []models.SparePart {
	out := make([]models.SparePart, len(parts))
	for i, p := range parts {
		p.Total = billing.LineTotal(p.Quantity, p.UnitPrice)
		out[i] = p
	}
	return out
}

func actorID(actor *models.Claims) primitive.ObjectID {
	if actor == nil {
		return primitive.NilObjectID
	}
	id, err := primitive.ObjectIDFromHex(actor.UserID)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

func actorName(actor *models.Claims) string {
	if actor == nil {
		return ""
	}
	return actor.Email
}
