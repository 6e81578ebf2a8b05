package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/junes231/funnel-editor/internal/model"
)

// ErrNotFound is returned by writes that matched no document
var ErrNotFound = errors.New("document not found")

// FunnelRepo handles MongoDB operations for funnels
type FunnelRepo interface {
	Create(ctx context.Context, funnel *model.Funnel) (string, error)
	GetByID(ctx context.Context, id string) (*model.Funnel, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Funnel, error)
	Update(ctx context.Context, funnel *model.Funnel) error
	ReplaceQuestions(ctx context.Context, id string, questions []model.Question) error
	IncrementClick(ctx context.Context, funnelID, questionID, answerID string) error
	Delete(ctx context.Context, id string) error
}

type funnelRepo struct {
	collection *mongo.Collection
}

// NewFunnelRepo creates a new funnel repository
func NewFunnelRepo(db *mongo.Database) FunnelRepo {
	return &funnelRepo{
		collection: db.Collection("funnels"),
	}
}

func (r *funnelRepo) Create(ctx context.Context, funnel *model.Funnel) (string, error) {
	funnel.CreatedAt = time.Now()
	funnel.UpdatedAt = funnel.CreatedAt

	doc := *funnel
	doc.ID = ""
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	funnel.ID = oid.Hex()
	return funnel.ID, nil
}

// GetByID returns nil, nil when the funnel does not exist or id is malformed
func (r *funnelRepo) GetByID(ctx context.Context, id string) (*model.Funnel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var funnel model.Funnel
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&funnel)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	funnel.ID = id
	return &funnel, nil
}

func (r *funnelRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Funnel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	funnels := []*model.Funnel{}
	if err := cursor.All(ctx, &funnels); err != nil {
		return nil, err
	}
	return funnels, nil
}

func (r *funnelRepo) Update(ctx context.Context, funnel *model.Funnel) error {
	oid, err := primitive.ObjectIDFromHex(funnel.ID)
	if err != nil {
		return ErrNotFound
	}

	funnel.UpdatedAt = time.Now()
	doc := *funnel
	doc.ID = ""
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceQuestions swaps the whole question list in a single write
func (r *funnelRepo) ReplaceQuestions(ctx context.Context, id string, questions []model.Question) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"questions": questions,
		"updatedAt": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClick atomically bumps one answer's clickCount. The answer id is
// part of the field path, so ids containing '.' or starting with '$' never match.
func (r *funnelRepo) IncrementClick(ctx context.Context, funnelID, questionID, answerID string) error {
	oid, err := primitive.ObjectIDFromHex(funnelID)
	if err != nil {
		return ErrNotFound
	}
	if !model.ValidAnswerID(answerID) {
		return ErrNotFound
	}

	answerPath := "answers." + answerID
	filter := bson.M{
		"_id": oid,
		"questions": bson.M{"$elemMatch": bson.M{
			"id":       questionID,
			answerPath: bson.M{"$exists": true},
		}},
	}
	update := bson.M{"$inc": bson.M{"questions.$[q]." + answerPath + ".clickCount": 1}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"q.id": questionID}},
	})

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *funnelRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
