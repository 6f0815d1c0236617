package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	CollectionSubscriptions = "subscriptions"
	CollectionHistory       = "subscription_history"
)

// MongoStore is a Store backed by MongoDB.
type MongoStore struct {
	subs    *mongo.Collection
	history *mongo.Collection
	now     func() time.Time
}

// NewMongoStore creates a MongoStore on db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		subs:    db.Collection(CollectionSubscriptions),
		history: db.Collection(CollectionHistory),
		now:     time.Now,
	}
}

// EnsureIndexes creates the lookup indexes. It is safe to call on every start.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.subs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("userId_unique"),
		},
		{
			Keys:    bson.D{{Key: "subscriptionId", Value: 1}},
			Options: options.Index().SetName("subscriptionId"),
		},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionSubscriptions, err)
	}

	_, err = s.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "endedAt", Value: -1}},
		Options: options.Index().SetName("userId_endedAt"),
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionHistory, err)
	}
	return nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	return s.findOne(ctx, bson.M{"userId": userID})
}

// FindBySubscriptionID implements Store.
func (s *MongoStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*Record, error) {
	if subscriptionID == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"subscriptionId": subscriptionID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Record, error) {
	var rec Record
	err := s.subs.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	return &rec, nil
}

// Upsert implements Store.
func (s *MongoStore) Upsert(ctx context.Context, rec Record) error {
	now := s.now().UTC()

	old, err := s.Get(ctx, rec.UserID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	case old.SubscriptionID != rec.SubscriptionID:
		if err := s.archive(ctx, *old, now, nil); err != nil {
			return err
		}
	}

	set := bson.M{
		"planName":          rec.PlanName,
		"status":            rec.Status,
		"subscriptionId":    rec.SubscriptionID,
		"customerId":        rec.CustomerID,
		"currentPeriodEnd":  rec.CurrentPeriodEnd,
		"cancelAtPeriodEnd": rec.CancelAtPeriodEnd,
		"updatedAt":         now,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err = s.subs.UpdateOne(ctx, bson.M{"userId": rec.UserID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, userID string) error {
	old, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.archive(ctx, *old, now, &now); err != nil {
		return err
	}
	if _, err := s.subs.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// History returns the archived records of userID, newest first.
func (s *MongoStore) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	cur, err := s.history.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find subscription history: %w", err)
	}

	var entries []HistoryEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode subscription history: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) archive(ctx context.Context, rec Record, endedAt time.Time, deletedAt *time.Time) error {
	entry := HistoryEntry{Record: rec, EndedAt: endedAt, DeletedAt: deletedAt}
	if _, err := s.history.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("archive subscription: %w", err)
	}
	return nil
}
