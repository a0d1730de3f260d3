package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageRecord is the archived view of one successfully crawled page.
type PageRecord struct {
	URL           string    `bson:"url"`
	Depth         int       `bson:"depth"`
	Title         string    `bson:"title,omitempty"`
	File          string    `bson:"file"`
	ContentLength int       `bson:"contentLength"`
	Content       string    `bson:"content"`
	Summary       string    `bson:"summary,omitempty"`
	SummaryError  string    `bson:"summaryError,omitempty"`
	CrawledAt     time.Time `bson:"crawledAt"`
}

// Archive keeps a copy of every processed page outside the output directory.
type Archive interface {
	Insert(ctx context.Context, rec PageRecord) error
	Close(ctx context.Context) error
}

// NopArchive is used when no archive is configured.
type NopArchive struct{}

func (NopArchive) Insert(context.Context, PageRecord) error { return nil }
func (NopArchive) Close(context.Context) error              { return nil }

// Mongo archives page records into one MongoDB collection.
type Mongo struct {
	Client     *mongo.Client
	Collection *mongo.Collection
}

// NewMongo connects to uri and verifies the connection.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(err, "failed to reach MongoDB")
	}

	return &Mongo{
		Client:     client,
		Collection: client.Database(database).Collection(collection),
	}, nil
}

func (s *Mongo) Insert(ctx context.Context, rec PageRecord) error {
	if _, err := s.Collection.InsertOne(ctx, rec); err != nil {
		return errors.Wrapf(err, "failed to archive %s", rec.URL)
	}
	return nil
}

func (s *Mongo) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
