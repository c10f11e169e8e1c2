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

// JobCardCollection defines the interface for job card persistence.
type JobCardCollection interface {
	InsertJobCard(ctx context.Context, card *models.JobCard) error
	FindJobCards(ctx context.Context) ([]models.JobCard, error)
	FindJobCardByID(ctx context.Context, id string) (*models.JobCard, error)
	FindJobCardsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.JobCard, error)
	SaveJobCard(ctx context.Context, card *models.JobCard) error
	DeleteJobCard(ctx context.Context, id string) error
}

// MongoJobCardCollection implements JobCardCollection for MongoDB.
type MongoJobCardCollection struct {
	Collection *mongo.Collection
}

// InsertJobCard stores a new job card at version 1 and sets its ID.
func (c *MongoJobCardCollection) InsertJobCard(ctx context.Context, card *models.JobCard) error {
	now := time.Now()
	card.ID = primitive.NewObjectID()
	card.Version = 1
	card.CreatedAt = now
	card.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, card)
	return translate(err)
}

// FindJobCards lists all job cards, newest first.
func (c *MongoJobCardCollection) FindJobCards(ctx context.Context) ([]models.JobCard, error) {
	return c.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// FindJobCardByID finds a job card by its ID.
func (c *MongoJobCardCollection) FindJobCardByID(ctx context.Context, id string) (*models.JobCard, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var card models.JobCard
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&card); err != nil {
		return nil, translate(err)
	}
	return &card, nil
}

// FindJobCardsByIDs loads the job cards whose IDs are in ids.
func (c *MongoJobCardCollection) FindJobCardsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.JobCard, error) {
	if len(ids) == 0 {
		return []models.JobCard{}, nil
	}
	return c.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// SaveJobCard replaces the stored card only if its version still matches the one that
// was read. On success card.Version is advanced. A stale card yields ErrVersionConflict.
func (c *MongoJobCardCollection) SaveJobCard(ctx context.Context, card *models.JobCard) error {
	readVersion := card.Version
	card.Version = readVersion + 1
	card.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": card.ID, "version": readVersion}, card)
	if err != nil {
		card.Version = readVersion
		return translate(err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	card.Version = readVersion
	n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": card.ID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// DeleteJobCard removes a job card by its ID.
func (c *MongoJobCardCollection) DeleteJobCard(ctx context.Context, id string) error {
	objectID, err := ParseID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoJobCardCollection) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.JobCard, error) {
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	cards := []models.JobCard{}
	if err := cursor.All(ctx, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}
