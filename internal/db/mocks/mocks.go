// Package mocks provides testify mocks of the db collection interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/models"
)

// UserCollection is a mock implementation of db.UserCollection.
type UserCollection struct {
	mock.Mock
}

func (m *UserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserCollection) FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *UserCollection) FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *UserCollection) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// JobCardCollection is a mock implementation of db.JobCardCollection.
type JobCardCollection struct {
	mock.Mock
}

func (m *JobCardCollection) InsertJobCard(ctx context.Context, card *models.JobCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *JobCardCollection) FindJobCards(ctx context.Context) ([]models.JobCard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JobCard), args.Error(1)
}

func (m *JobCardCollection) FindJobCardByID(ctx context.Context, id string) (*models.JobCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobCard), args.Error(1)
}

func (m *JobCardCollection) FindJobCardsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.JobCard, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.JobCard), args.Error(1)
}

func (m *JobCardCollection) SaveJobCard(ctx context.Context, card *models.JobCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *JobCardCollection) DeleteJobCard(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// InventoryCollection is a mock implementation of db.InventoryCollection.
type InventoryCollection struct {
	mock.Mock
}

func (m *InventoryCollection) FindActiveItems(ctx context.Context) ([]models.InventoryItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

func (m *InventoryCollection) FindItemByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *InventoryCollection) FindItemByPartNumber(ctx context.Context, partNumber string) (*models.InventoryItem, error) {
	args := m.Called(ctx, partNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *InventoryCollection) InsertItem(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *InventoryCollection) SaveItem(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *InventoryCollection) UpsertItem(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// NotificationCollection is a mock implementation of db.NotificationCollection.
type NotificationCollection struct {
	mock.Mock
}

func (m *NotificationCollection) InsertNotification(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationCollection) FindNotifications(ctx context.Context, user primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	args := m.Called(ctx, user, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *NotificationCollection) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationCollection) MarkRead(ctx context.Context, id string, user primitive.ObjectID) (*models.Notification, error) {
	args := m.Called(ctx, id, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *NotificationCollection) MarkAllRead(ctx context.Context, user primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationCollection) DeleteNotification(ctx context.Context, id string, user primitive.ObjectID) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}
