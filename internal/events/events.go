// Package events publishes job-card domain events to a message broker.
package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/config"
	"github.com/ukydev/autoserve/internal/models"
)

// Event names, also used as AMQP routing keys.
const (
	JobCardCreated        = "jobcard.created"
	JobCardUpdated        = "jobcard.updated"
	JobCardBillingUpdated = "jobcard.billing_updated"
	JobCardPaymentUpdated = "jobcard.payment_updated"
	JobCardDeleted        = "jobcard.deleted"
)

// Event is the JSON payload published for every job-card change.
type Event struct {
	ID            string               `json:"id"`
	Name          string               `json:"event"`
	JobCardID     string               `json:"jobCardId"`
	JobNumber     string               `json:"jobNumber"`
	Status        models.JobStatus     `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	ActorID       string               `json:"actorId,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// NewJobCardEvent builds an event describing card as changed by actor.
func NewJobCardEvent(name string, card *models.JobCard, actor *models.Claims) Event {
	e := Event{
		ID:            uuid.NewString(),
		Name:          name,
		JobCardID:     card.ID.Hex(),
		JobNumber:     card.JobNumber,
		Status:        card.Status,
		PaymentStatus: card.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
	if actor != nil {
		e.ActorID = actor.UserID
	}
	return e
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// New builds the publisher selected by cfg.EventsBroker.
func New(cfg config.Config) (Publisher, error) {
	switch cfg.EventsBroker {
	case "", "none":
		return Nop{}, nil
	case "amqp", "rabbitmq":
		return NewRabbitPublisher(cfg.EventsURL, cfg.EventsExchange)
	case "mqtt":
		return NewMQTTPublisher(cfg.EventsURL, cfg.ServiceName)
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.EventsBroker)
	}
}

// MQTTTopic maps an event name to its MQTT topic, e.g. jobcard.created to
// autoserve/jobcard/created.
func MQTTTopic(name string) string {
	return "autoserve/" + strings.ReplaceAll(name, ".", "/")
}

// PublishTimeout bounds how long Emit waits for a broker acknowledgement.
var PublishTimeout = 3 * time.Second

// Emit publishes e and logs failures instead of returning them. The publish is
// detached from ctx cancellation and bounded by PublishTimeout, so a request
// never waits on a reconnecting broker for longer than that.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	if err := p.Publish(pctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":      e.Name,
			"job_number": e.JobNumber,
		}).Warn("Failed to publish event")
	}
}
