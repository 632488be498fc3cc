// Package mongostore implements store.PolicyStore on MongoDB.
// Each policy is one document in the "policies" collection keyed by its id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/solatis/policykeeper/internal/store"
	"github.com/solatis/policykeeper/internal/types"
)

const (
	defaultDatabase = "policykeeper"
	collectionName  = "policies"
	connectTimeout  = 10 * time.Second
)

// Store is a MongoDB PolicyStore.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// Open connects to uri (mongodb:// or mongodb+srv://). The database is the
// URI path, defaulting to "policykeeper". Indexes are created if missing.
func Open(ctx context.Context, uri string) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb URL: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = defaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(dbName).Collection(collectionName),
		now:    time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, p *types.Policy) (*types.Policy, error) {
	stored := store.Prepare(p, s.now())
	// BSON datetimes hold milliseconds.
	stored.CreatedAt = stored.CreatedAt.Truncate(time.Millisecond)

	if _, err := s.coll.InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, types.InvalidInput("policy %q already exists", stored.ID)
		}
		return nil, fmt.Errorf("create policy: %w", err)
	}
	return stored, nil
}

func (s *Store) Get(ctx context.Context, id string) (*types.Policy, error) {
	var p types.Policy
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get policy %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]*types.Policy, error) {
	filter := bson.D{}
	if ownerID != "" {
		filter = bson.D{{Key: "user_id", Value: ownerID}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer cur.Close(ctx)

	out := []*types.Policy{}
	for cur.Next(ctx) {
		var p types.Policy
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("list policies: decode: %w", err)
		}
		out = append(out, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateChecklist(ctx context.Context, id string, checklist []types.ChecklistItem) error {
	if checklist == nil {
		checklist = []types.ChecklistItem{}
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "checklist", Value: checklist}}}})
	if err != nil {
		return fmt.Errorf("update checklist %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return types.ErrPolicyNotFound
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
