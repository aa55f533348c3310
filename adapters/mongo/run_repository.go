package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/2004yashu-cpu/audio-translator/domain/entities"
	"github.com/2004yashu-cpu/audio-translator/domain/repositories"
)

type RunRepository struct {
	collection *mongo.Collection
}

// NewRunRepository creates a new MongoDB run repository
func NewRunRepository(db *mongo.Database) repositories.RunRepository {
	return &RunRepository{
		collection: db.Collection("runs"),
	}
}

// Create implements repositories.RunRepository
func (r *RunRepository) Create(ctx context.Context, run *entities.TranslationRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if err := run.Validate(); err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Update implements repositories.RunRepository
func (r *RunRepository) Update(ctx context.Context, run *entities.TranslationRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.ID == "" {
		return errors.New("run ID cannot be empty")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": run.ID}, run)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("run with ID %s not found", run.ID)
	}
	return nil
}

// GetByID implements repositories.RunRepository
func (r *RunRepository) GetByID(ctx context.Context, id string) (*entities.TranslationRun, error) {
	if id == "" {
		return nil, errors.New("run ID cannot be empty")
	}

	var run entities.TranslationRun
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &run, nil
}

// ListRecent implements repositories.RunRepository
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranslationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []*entities.TranslationRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	return runs, nil
}
