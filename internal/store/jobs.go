package store

import (
	"context"
	"errors"

	"editais-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// JobStore persists scraping job executions.
type JobStore struct {
	coll *mongo.Collection
}

func NewJobStore(db *mongo.Database) *JobStore {
	return &JobStore{coll: db.Collection("job_executions")}
}

func (s *JobStore) Create(ctx context.Context, job *models.JobExecution) error {
	_, err := s.coll.InsertOne(ctx, job)
	return err
}

// Save writes the full job document. The runner calls it after every
// state change so the status endpoint always sees current progress.
func (s *JobStore) Save(ctx context.Context, job *models.JobExecution) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	return err
}

func (s *JobStore) GetByID(ctx context.Context, id string) (*models.JobExecution, error) {
	var job models.JobExecution
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the latest executions, newest first.
func (s *JobStore) ListRecent(ctx context.Context, limit int) ([]models.JobExecution, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []models.JobExecution
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
