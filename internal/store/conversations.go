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

// ConversationStore persists chat conversations per user.
type ConversationStore struct {
	coll *mongo.Collection
}

func NewConversationStore(db *mongo.Database) *ConversationStore {
	return &ConversationStore{coll: db.Collection("conversations")}
}

func (s *ConversationStore) Create(ctx context.Context, userID string, editalUUID *string) (*models.Conversation, error) {
	conv := models.NewConversation(uuid.NewString(), userID, editalUUID)
	if _, err := s.coll.InsertOne(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListByUser returns the user's conversations, most recently active
// first, without the message bodies.
func (s *ConversationStore) ListByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"messages": 0})

	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []models.Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// AppendMessages pushes messages onto the conversation and optionally
// retitles it. Title is set once, after the first exchange.
func (s *ConversationStore) AppendMessages(ctx context.Context, id string, messages []models.ChatMessage, title string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if title != "" {
		set["title"] = title
	}

	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  set,
	}
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
