package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

const activityPageSize = 50

// MongoStore keeps the listing activity log in MongoDB.
type MongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("activity"), now: time.Now}
}

// EnsureIndexes creates the per-user and retention indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return mongoErr("MongoStore.EnsureIndexes", err)
	}
	return nil
}

// Record implements listing.ActivityRecorder.
func (s *MongoStore) Record(ctx context.Context, a *models.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	res, err := s.col.InsertOne(ctx, a)
	if err != nil {
		return mongoErr("MongoStore.Record", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid
	}
	return nil
}

// ListByUser returns the newest events of a user, at most limit of them.
func (s *MongoStore) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Activity, error) {
	if limit <= 0 {
		limit = activityPageSize
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mongoErr("MongoStore.ListByUser", err)
	}
	defer cur.Close(ctx)

	docs := []models.Activity{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoErr("MongoStore.ListByUser", err)
	}
	return docs, nil
}

// PruneBefore deletes events older than cutoff and reports how many went.
func (s *MongoStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, mongoErr("MongoStore.PruneBefore", err)
	}
	return res.DeletedCount, nil
}

func mongoErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFoundErr(op, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.Network, op, err)
	}
	return apperr.Wrap(apperr.Internal, op, err)
}
