package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo dials and pings the cluster and returns the named database.
func ConnectMongo(ctx context.Context, mongoURI, dbName string) (*mongo.Client, *mongo.Database, error) {
	// Atlas rejects the handshake from some hosts unless TLS is pinned to 1.2.
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	opts := options.Client().ApplyURI(mongoURI)
	if !isLocalURI(mongoURI) {
		opts.SetTLSConfig(tlsCfg)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Printf("MongoDB connected: db=%s", dbName)
	return client, client.Database(dbName), nil
}

func isLocalURI(uri string) bool {
	for _, prefix := range []string{"mongodb://localhost", "mongodb://127.0.0.1", "mongodb://mongo:"} {
		if strings.HasPrefix(uri, prefix) {
			return true
		}
	}
	return false
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// Sequence hands out increasing integer ids backed by a counters collection.
type Sequence struct {
	coll *mongo.Collection
	name string
}

func NewSequence(db *mongo.Database, name string) *Sequence {
	return &Sequence{coll: db.Collection("counters"), name: name}
}

// Next atomically increments and returns the counter.
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	res := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc counterDoc
	if err := res.Decode(&doc); err != nil {
		return 0, fmt.Errorf("next %s id: %w", s.name, err)
	}
	return doc.Seq, nil
}
