// Package notification creates and serves per-user notification records.
package notification

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/models"
)

// ListLimit caps the number of notifications returned by List.
const ListLimit = 50

// Notifier writes notification records. Failures are logged, never returned.
type Notifier struct {
	notifications db.NotificationCollection
}

// NewNotifier returns a Notifier backed by notifications.
func NewNotifier(notifications db.NotificationCollection) *Notifier {
	return &Notifier{notifications: notifications}
}

// Notify records a notification for user about jobCard.
func (n *Notifier) Notify(ctx context.Context, user primitive.ObjectID, typ models.NotificationType, title, message string, jobCard *primitive.ObjectID) {
	if n == nil || user.IsZero() {
		return
	}
	record := &models.Notification{
		User:    user,
		Type:    typ,
		Title:   title,
		Message: message,
		JobCard: jobCard,
	}
	if err := n.notifications.InsertNotification(ctx, record); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user": user.Hex(),
			"type": typ,
		}).Warn("Failed to create notification")
	}
}

// View is a notification with its job card populated.
type View struct {
	models.Notification
	JobCard *models.JobCardRef `json:"jobCard,omitempty"`
}

// ListResult is the response of List.
type ListResult struct {
	Notifications []View `json:"notifications"`
	UnreadCount   int64  `json:"unreadCount"`
}

// Service serves the notification endpoints of the calling user.
type Service struct {
	notifications db.NotificationCollection
	jobCards      db.JobCardCollection
}

// NewService returns a Service.
func NewService(notifications db.NotificationCollection, jobCards db.JobCardCollection) *Service {
	return &Service{notifications: notifications, jobCards: jobCards}
}

// List returns the user's most recent notifications and their unread count.
func (s *Service) List(ctx context.Context, user primitive.ObjectID, unreadOnly bool) (*ListResult, error) {
	records, err := s.notifications.FindNotifications(ctx, user, unreadOnly, ListLimit)
	if err != nil {
		return nil, errors.Wrap(err, "find notifications")
	}
	unread, err := s.notifications.CountUnread(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "count unread notifications")
	}

	refs, err := s.jobCardRefs(ctx, records)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(records))
	for _, r := range records {
		v := View{Notification: r}
		if r.JobCard != nil {
			v.JobCard = refs[*r.JobCard]
		}
		views = append(views, v)
	}
	return &ListResult{Notifications: views, UnreadCount: unread}, nil
}

func (s *Service) jobCardRefs(ctx context.Context, records []models.Notification) (map[primitive.ObjectID]*models.JobCardRef, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, r := range records {
		if r.JobCard != nil && !seen[*r.JobCard] {
			seen[*r.JobCard] = true
			ids = append(ids, *r.JobCard)
		}
	}
	refs := make(map[primitive.ObjectID]*models.JobCardRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	cards, err := s.jobCards.FindJobCardsByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "populate job cards")
	}
	for _, c := range cards {
		refs[c.ID] = &models.JobCardRef{ID: c.ID, JobNumber: c.JobNumber, Status: c.Status}
	}
	return refs, nil
}

// MarkRead marks one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, id string, user primitive.ObjectID) (*models.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, user)
	if err != nil {
		return nil, errors.Wrap(err, "mark notification read")
	}
	return n, nil
}

// MarkAllRead marks every notification of the user read.
func (s *Service) MarkAllRead(ctx context.Context, user primitive.ObjectID) error {
	_, err := s.notifications.MarkAllRead(ctx, user)
	return errors.Wrap(err, "mark all notifications read")
}

// Delete removes one of the user's notifications.
func (s *Service) Delete(ctx context.Context, id string, user primitive.ObjectID) error {
	return errors.Wrap(s.notifications.DeleteNotification(ctx, id, user), "delete notification")
}
