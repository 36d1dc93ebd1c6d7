// Package mongo stores lecture summaries and interview turns in MongoDB.
//
// Summaries are read from a collection whose documents carry file_name,
// summary and timestamp fields. Turns are inserted into a separate log
// collection and never updated.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zhouzirui/interviewer/internal/model/interview"
)

// Options configures the connection.
type Options struct {
	URI               string
	Database          string
	SummaryCollection string
	LogCollection     string
	Timeout           time.Duration
}

// Store implements the interview store contracts on two collections.
type Store struct {
	client    *mongo.Client
	summaries *mongo.Collection
	turns     *mongo.Collection
	timeout   time.Duration
}

type summaryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FileName  string             `bson:"file_name"`
	Summary   string             `bson:"summary"`
	Timestamp time.Time          `bson:"timestamp"`
}

type turnDocument struct {
	SessionID string    `bson:"session_id,omitempty"`
	File      string    `bson:"file"`
	Question  string    `bson:"question"`
	Answer    string    `bson:"answer"`
	Followup  string    `bson:"followup"`
	Timestamp time.Time `bson:"timestamp"`
}

// Open connects to MongoDB and verifies the server is reachable.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connect mongo: %w", interview.ErrPersistence, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping mongo: %w", interview.ErrPersistence, err)
	}

	db := client.Database(opts.Database)
	return &Store{
		client:    client,
		summaries: db.Collection(opts.SummaryCollection),
		turns:     db.Collection(opts.LogCollection),
		timeout:   opts.Timeout,
	}, nil
}

// Latest returns the summary with the newest timestamp. ObjectIDs grow with
// insertion time, so _id breaks ties in favour of the later insert.
func (s *Store) Latest(ctx context.Context) (interview.SummaryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOpts := options.FindOne().SetSort(bson.D{
		{Key: "timestamp", Value: -1},
		{Key: "_id", Value: -1},
	})

	var doc summaryDocument
	err := s.summaries.FindOne(ctx, bson.D{}, findOpts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interview.SummaryRecord{}, interview.ErrNotFound
	}
	if err != nil {
		return interview.SummaryRecord{}, fmt.Errorf("%w: find latest summary: %w", interview.ErrPersistence, err)
	}

	return interview.SummaryRecord{
		ID:        doc.FileName,
		Text:      doc.Summary,
		CreatedAt: doc.Timestamp.UTC(),
	}, nil
}

// AddSummary inserts a summary document.
func (s *Store) AddSummary(ctx context.Context, record interview.SummaryRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: summary id is required", interview.ErrPersistence)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.summaries.InsertOne(ctx, summaryDocument{
		FileName:  record.ID,
		Summary:   record.Text,
		Timestamp: record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: insert summary: %w", interview.ErrPersistence, err)
	}
	return nil
}

// AppendTurn inserts one turn document.
func (s *Store) AppendTurn(ctx context.Context, entry interview.TurnLogEntry) error {
	if entry.LoggedAt.IsZero() {
		entry.LoggedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.turns.InsertOne(ctx, turnDocument{
		SessionID: entry.SessionID,
		File:      entry.SourceID,
		Question:  entry.Question,
		Answer:    entry.Answer,
		Followup:  entry.Followup,
		Timestamp: entry.LoggedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: insert turn: %w", interview.ErrPersistence, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
