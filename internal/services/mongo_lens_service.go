package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/storage"
)

type MongoLensService struct {
	coll *mongo.Collection
	ids  *storage.Sequence
}

type mongoLensDoc struct {
	ID              int64     `bson:"_id"`
	Name            string    `bson:"name"`
	LensType        string    `bson:"lens_type"`
	RefractiveIndex *float64  `bson:"refractive_index,omitempty"`
	Treatment       string    `bson:"treatment"`
	Price           float64   `bson:"price"`
	CreatedAt       time.Time `bson:"created_at"`
}

func NewMongoLensService(db *mongo.Database) *MongoLensService {
	return &MongoLensService{coll: db.Collection("lenses"), ids: storage.NewSequence(db, "lenses")}
}

func lensDocToModel(d mongoLensDoc) *models.Lens {
	return &models.Lens{
		ID:              d.ID,
		Name:            d.Name,
		LensType:        models.LensType(d.LensType),
		RefractiveIndex: d.RefractiveIndex,
		Treatment:       d.Treatment,
		Price:           d.Price,
		CreatedAt:       d.CreatedAt,
	}
}

func (s *MongoLensService) List(ctx context.Context) ([]*models.Lens, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	lenses := make([]*models.Lens, 0)
	for cur.Next(ctx) {
		var d mongoLensDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		lenses = append(lenses, lensDocToModel(d))
	}
	return lenses, cur.Err()
}

func (s *MongoLensService) Create(ctx context.Context, l *models.Lens) (*models.Lens, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	id, err := s.ids.Next(ctx)
	if err != nil {
		return nil, err
	}
	doc := mongoLensDoc{
		ID:              id,
		Name:            l.Name,
		LensType:        string(l.LensType),
		RefractiveIndex: l.RefractiveIndex,
		Treatment:       l.Treatment,
		Price:           l.Price,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return lensDocToModel(doc), nil
}

func (s *MongoLensService) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrLensNotFound
	}
	return nil
}
