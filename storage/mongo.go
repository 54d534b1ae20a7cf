// Package storage provides MongoDB conversation storage.
//
// Information Hiding:
// - Connection management and collection layout hidden behind interface
// - One document per conversation with the messages embedded; appends rely
//   on Mongo's per-document write atomicity ($push together with $set)

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const conversationsCollection = "conversations"

// conversationDoc is the persisted document layout:
// {_id, user_email, title, created_at, updated_at, messages: [...]}.
type conversationDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserEmail string             `bson:"user_email"`
	Title     string             `bson:"title"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
	Messages  []Message          `bson:"messages"`
}

// MongoStore implements ConversationStore backed by a MongoDB collection.
type MongoStore struct {
	client        *mongo.Client
	conversations *mongo.Collection
}

// OpenMongo connects to MongoDB and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client:        client,
		conversations: client.Database(database).Collection(conversationsCollection),
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CreateConversation creates a conversation document with an empty message
// sequence and returns its id in hex form.
func (s *MongoStore) CreateConversation(ctx context.Context, userEmail, title string) (string, error) {
	if title == "" {
		title = DefaultTitle
	}

	now := time.Now().UTC()
	result, err := s.conversations.InsertOne(ctx, conversationDoc{
		UserEmail: userEmail,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id.Hex(), nil
}

// AppendMessage appends one message and refreshes updated_at in a single
// UpdateOne call.
func (s *MongoStore) AppendMessage(ctx context.Context, conversationID string, msg Message) error {
	return s.AppendMessages(ctx, conversationID, []Message{msg})
}

// AppendMessages appends messages in order and refreshes updated_at as one
// atomic document update.
func (s *MongoStore) AppendMessages(ctx context.Context, conversationID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	id, err := parseObjectID(conversationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"messages": bson.M{"$each": stamp(msgs, now)}},
			"$set":  bson.M{"updated_at": now},
		})
	if err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("append to conversation %s: %w", conversationID, ErrNotFound)
	}
	return nil
}

// ListConversations returns the user's conversation summaries ordered by
// updated_at descending. The messages array is never fetched here.
func (s *MongoStore) ListConversations(ctx context.Context, userEmail string) ([]Summary, error) {
	cursor, err := s.conversations.Find(ctx,
		bson.M{"user_email": userEmail},
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: -1}}).
			SetProjection(bson.M{"messages": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []Summary{}
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		summaries = append(summaries, doc.summary())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return summaries, nil
}

// Messages returns the conversation's messages in stored order.
func (s *MongoStore) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	id, err := parseObjectID(conversationID)
	if err != nil {
		return nil, err
	}

	var doc conversationDoc
	err = s.conversations.FindOne(ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"messages": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if doc.Messages == nil {
		return []Message{}, nil
	}
	return doc.Messages, nil
}

// GetConversation returns the summary for a single conversation.
func (s *MongoStore) GetConversation(ctx context.Context, conversationID string) (Summary, error) {
	id, err := parseObjectID(conversationID)
	if err != nil {
		return Summary{}, err
	}

	var doc conversationDoc
	err = s.conversations.FindOne(ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"messages": 0})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Summary{}, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	return doc.summary(), nil
}

// RenameConversation overwrites the title field only.
func (s *MongoStore) RenameConversation(ctx context.Context, conversationID, newTitle string) error {
	id, err := parseObjectID(conversationID)
	if err != nil {
		return err
	}

	result, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": newTitle}})
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("rename conversation %s: %w", conversationID, ErrNotFound)
	}
	return nil
}

func (d conversationDoc) summary() Summary {
	return Summary{
		ID:        d.ID.Hex(),
		UserEmail: d.UserEmail,
		Title:     d.Title,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func parseObjectID(conversationID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid conversation id %q: %w", conversationID, err)
	}
	return id, nil
}

// Verify MongoStore implements ConversationStore
var _ ConversationStore = (*MongoStore)(nil)
