package store

import (
	"context"
	"errors"
	"time"

	"editais-platform/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("document not found")

// EditalStore persists editais and their extraction results.
type EditalStore struct {
	coll *mongo.Collection
}

func NewEditalStore(db *mongo.Database) *EditalStore {
	return &EditalStore{coll: db.Collection("editais")}
}

// Upsert registers an edital by its PDF link and returns its uuid.
// A link already on file keeps its existing uuid, so re-running a
// source never duplicates documents.
func (s *EditalStore) Upsert(ctx context.Context, link, origem string) (string, error) {
	var existing struct {
		ID string `bson:"_id"`
	}
	err := s.coll.FindOne(ctx, bson.M{"link": link}).Decode(&existing)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}

	now := time.Now().UTC()
	edital := models.Edital{
		ID:               uuid.NewString(),
		Link:             link,
		Origem:           origem,
		ExtractionStatus: models.ExtractionStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := s.coll.InsertOne(ctx, edital); err != nil {
		// Lost the race on the unique link index: read the winner.
		if mongo.IsDuplicateKeyError(err) {
			if decErr := s.coll.FindOne(ctx, bson.M{"link": link}).Decode(&existing); decErr == nil {
				return existing.ID, nil
			}
		}
		return "", err
	}
	return edital.ID, nil
}

// SavePartialExtraction appends one chunk's raw variables to the
// extraction history and marks the edital in progress. Each chunk is
// committed as soon as it is extracted, so a crash mid-document loses
// at most the chunk being processed.
func (s *EditalStore) SavePartialExtraction(ctx context.Context, editalID string, chunkIndex int, variables map[string]interface{}) error {
	update := bson.M{
		"$push": bson.M{"extraction_chunks": models.ExtractionChunk{
			ChunkIndex:  chunkIndex,
			ExtractedAt: time.Now().UTC(),
			Variables:   bson.M(variables),
		}},
		"$set": bson.M{
			"extraction_status": models.ExtractionStatusInProgress,
			"updated_at":        time.Now().UTC(),
		},
	}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": editalID}, update, options.Update().SetUpsert(true))
	return err
}

// SaveFinalExtraction stores the consolidated variables and copies the
// non-null fields to the top level of the document for direct querying.
func (s *EditalStore) SaveFinalExtraction(ctx context.Context, editalID string, consolidated map[string]interface{}) error {
	vars := models.VariablesFromMap(consolidated)

	set := bson.M{
		"consolidated_variables": vars,
		"extraction_status":      models.ExtractionStatusCompleted,
		"updated_at":             time.Now().UTC(),
	}
	for key, value := range consolidated {
		if key == "uuid" || value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		set[key] = value
	}

	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": editalID}, bson.M{"$set": set})
	return err
}

// MarkFailed records that extraction for this edital did not finish.
func (s *EditalStore) MarkFailed(ctx context.Context, editalID string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": editalID}, bson.M{"$set": bson.M{
		"extraction_status": models.ExtractionStatusFailed,
		"updated_at":        time.Now().UTC(),
	}})
	return err
}

// SetSourceMetadata overrides identification fields after extraction.
// Some sources publish calls on behalf of a fixed funder, and the
// document text rarely states that correctly.
func (s *EditalStore) SetSourceMetadata(ctx context.Context, editalID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now().UTC()
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": editalID}, bson.M{"$set": fields})
	return err
}

func (s *EditalStore) GetByID(ctx context.Context, id string) (*models.Edital, error) {
	var edital models.Edital
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&edital)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &edital, nil
}

// List returns a page of editais, optionally filtered by origem,
// newest first, plus the total match count.
func (s *EditalStore) List(ctx context.Context, origem string, page, pageSize int) ([]models.Edital, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := bson.M{}
	if origem != "" {
		filter["origem"] = origem
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var editais []models.Edital
	if err := cursor.All(ctx, &editais); err != nil {
		return nil, 0, err
	}
	return editais, total, nil
}

// ListAll returns every edital, newest first. Used by the export.
func (s *EditalStore) ListAll(ctx context.Context) ([]models.Edital, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var editais []models.Edital
	if err := cursor.All(ctx, &editais); err != nil {
		return nil, err
	}
	return editais, nil
}

func (s *EditalStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
