package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/autoserve/internal/models"
)

// NotificationCollection defines the interface for notification records.
// Every mutation is scoped to the owning user.
type NotificationCollection interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	FindNotifications(ctx context.Context, user primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id string, user primitive.ObjectID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, user primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, id string, user primitive.ObjectID) error
}

// MongoNotificationCollection implements NotificationCollection for MongoDB.
type MongoNotificationCollection struct {
	Collection *mongo.Collection
}

// InsertNotification stores a new unread notification.
func (c *MongoNotificationCollection) InsertNotification(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	n.ID = primitive.NewObjectID()
	n.Read = false
	n.CreatedAt = now
	n.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, n)
	return translate(err)
}

// FindNotifications lists the user's notifications, newest first, capped at limit.
func (c *MongoNotificationCollection) FindNotifications(ctx context.Context, user primitive.ObjectID, unreadOnly bool, limit int64) ([]models.Notification, error) {
	filter := bson.M{"user": user}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread counts the user's unread notifications.
func (c *MongoNotificationCollection) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	return c.Collection.CountDocuments(ctx, bson.M{"user": user, "read": false})
}

// MarkRead marks one notification read and returns it. Notifications owned by
// someone else are reported as ErrNotFound.
func (c *MongoNotificationCollection) MarkRead(ctx context.Context, id string, user primitive.ObjectID) (*models.Notification, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}}

	var n models.Notification
	err = c.Collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID, "user": user}, update, opts).Decode(&n)
	if err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// MarkAllRead marks every unread notification of the user read.
func (c *MongoNotificationCollection) MarkAllRead(ctx context.Context, user primitive.ObjectID) (int64, error) {
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}}
	result, err := c.Collection.UpdateMany(ctx, bson.M{"user": user, "read": false}, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// DeleteNotification removes one notification owned by user.
func (c *MongoNotificationCollection) DeleteNotification(ctx context.Context, id string, user primitive.ObjectID) error {
	objectID, err := ParseID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID, "user": user})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
