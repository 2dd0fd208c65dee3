package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/storage"
)

type MongoReferenceService struct {
	coll *mongo.Collection
	ids  *storage.Sequence
}

type mongoReferenceDoc struct {
	ID   int64  `bson:"_id"`
	Kind string `bson:"kind"`
	Name string `bson:"name"`
	Slug string `bson:"slug"`
	Hex  string `bson:"hex,omitempty"`
}

func NewMongoReferenceService(ctx context.Context, db *mongo.Database) *MongoReferenceService {
	coll := db.Collection("references")

	// Best-effort indexes.
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoReferenceService{coll: coll, ids: storage.NewSequence(db, "references")}
}

func referenceDocToModel(d mongoReferenceDoc) models.ReferenceItem {
	return models.ReferenceItem{
		ID:   d.ID,
		Kind: models.ReferenceKind(d.Kind),
		Name: d.Name,
		Slug: d.Slug,
		Hex:  d.Hex,
	}
}

func (s *MongoReferenceService) List(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{"kind": string(kind)}, options.Find().SetSort(bson.D{{Key: "slug", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]models.ReferenceItem, 0)
	for cur.Next(ctx) {
		var d mongoReferenceDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		items = append(items, referenceDocToModel(d))
	}
	return items, cur.Err()
}

func (s *MongoReferenceService) Create(ctx context.Context, kind models.ReferenceKind, req *models.CreateReferenceRequest) (*models.ReferenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	item := newReferenceItem(kind, req)
	err := s.coll.FindOne(ctx, bson.M{"kind": string(kind), "slug": item.Slug}).Err()
	if err == nil {
		return nil, ErrDuplicateReference
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	id, err := s.ids.Next(ctx)
	if err != nil {
		return nil, err
	}
	item.ID = id

	doc := mongoReferenceDoc{ID: item.ID, Kind: string(kind), Name: item.Name, Slug: item.Slug, Hex: item.Hex}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}
	return &item, nil
}

func (s *MongoReferenceService) Delete(ctx context.Context, kind models.ReferenceKind, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "kind": string(kind)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrReferenceNotFound
	}
	return nil
}
