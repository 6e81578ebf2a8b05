package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/junes231/funnel-editor/internal/model"
)

// LeadRepo handles MongoDB operations for captured leads
type LeadRepo interface {
	Create(ctx context.Context, lead *model.Lead) error
	ListByFunnel(ctx context.Context, funnelID string, limit int64) ([]*model.Lead, error)
}

type leadRepo struct {
	collection *mongo.Collection
}

// NewLeadRepo creates a new lead repository
func NewLeadRepo(db *mongo.Database) LeadRepo {
	return &leadRepo{
		collection: db.Collection("leads"),
	}
}

func (r *leadRepo) Create(ctx context.Context, lead *model.Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, lead)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		lead.ID = oid.Hex()
	}
	return nil
}

func (r *leadRepo) ListByFunnel(ctx context.Context, funnelID string, limit int64) ([]*model.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"funnelId": funnelID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	leads := []*model.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}
