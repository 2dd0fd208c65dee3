package services

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/storage"
)

const mongoTimeout = 10 * time.Second

type MongoFrameService struct {
	frames     *mongo.Collection
	ids        *storage.Sequence
	variations *storage.Sequence
}

type mongoDimensionsDoc struct {
	OverallWidth *float64 `bson:"overall_width,omitempty"`
	LensWidth    *float64 `bson:"lens_width,omitempty"`
	LensHeight   *float64 `bson:"lens_height,omitempty"`
	BridgeWidth  *float64 `bson:"bridge_width,omitempty"`
	TempleLength *float64 `bson:"temple_length,omitempty"`
}

type mongoFrameDoc struct {
	ID          int64              `bson:"_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	Gender      string             `bson:"gender"`
	Size        string             `bson:"size"`
	FrameType   string             `bson:"frame_type"`
	Shape       string             `bson:"shape"`
	Brand       string             `bson:"brand"`
	Dimensions  mongoDimensionsDoc `bson:"dimensions"`
	Available   bool               `bson:"available"`
	ImageURLs   []string           `bson:"image_urls"`
	Variations  []models.Variation `bson:"variations"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func NewMongoFrameService(ctx context.Context, db *mongo.Database) *MongoFrameService {
	frames := db.Collection("frames")

	// Best-effort indexes.
	_, _ = frames.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "brand", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "gender", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})

	return &MongoFrameService{
		frames:     frames,
		ids:        storage.NewSequence(db, "frames"),
		variations: storage.NewSequence(db, "variations"),
	}
}

func frameToDoc(f *models.Frame) mongoFrameDoc {
	return mongoFrameDoc{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Category:    string(f.Category),
		Gender:      string(f.Gender),
		Size:        string(f.Size),
		FrameType:   string(f.FrameType),
		Shape:       f.Shape,
		Brand:       f.Brand,
		Dimensions: mongoDimensionsDoc{
			OverallWidth: f.Dimensions.OverallWidth,
			LensWidth:    f.Dimensions.LensWidth,
			LensHeight:   f.Dimensions.LensHeight,
			BridgeWidth:  f.Dimensions.BridgeWidth,
			TempleLength: f.Dimensions.TempleLength,
		},
		Available:  f.Available,
		ImageURLs:  f.ImageURLs,
		Variations: append([]models.Variation{}, f.Variations...),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

func frameDocToModel(d mongoFrameDoc) *models.Frame {
	f := &models.Frame{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    models.Category(d.Category),
		Gender:      models.Gender(d.Gender),
		Size:        models.Size(d.Size),
		FrameType:   models.FrameType(d.FrameType),
		Shape:       d.Shape,
		Brand:       d.Brand,
		Dimensions: models.Dimensions{
			OverallWidth: d.Dimensions.OverallWidth,
			LensWidth:    d.Dimensions.LensWidth,
			LensHeight:   d.Dimensions.LensHeight,
			BridgeWidth:  d.Dimensions.BridgeWidth,
			TempleLength: d.Dimensions.TempleLength,
		},
		Available:  d.Available,
		ImageURLs:  d.ImageURLs,
		Variations: d.Variations,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if f.ImageURLs == nil {
		f.ImageURLs = []string{}
	}
	if f.Variations == nil {
		f.Variations = []models.Variation{}
	}
	return f
}

func (s *MongoFrameService) List(ctx context.Context) ([]*models.Frame, error) {
	return s.Search(ctx, models.FilterSelection{})
}

func (s *MongoFrameService) Search(ctx context.Context, sel models.FilterSelection) ([]*models.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cur, err := s.frames.Find(ctx, selectionFilter(sel), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*models.Frame, 0)
	for cur.Next(ctx) {
		var d mongoFrameDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		results = append(results, frameDocToModel(d))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// selectionFilter pushes the storefront filter down to the query.
func selectionFilter(sel models.FilterSelection) bson.M {
	filter := bson.M{}
	if sel.Query != "" {
		pattern := containsFold(sel.Query)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"brand": pattern},
		}
	}
	if len(sel.Brands) > 0 {
		brands := bson.A{}
		for _, b := range sel.Brands {
			brands = append(brands, exactFold(b))
		}
		filter["brand"] = bson.M{"$in": brands}
	}
	if sel.Category != "" {
		filter["category"] = string(sel.Category)
	}
	if sel.Gender != "" {
		filter["gender"] = string(sel.Gender)
	}
	if sel.Shape != "" {
		filter["shape"] = exactFold(sel.Shape)
	}
	if sel.Size != "" {
		filter["size"] = string(sel.Size)
	}
	if sel.FrameType != "" {
		filter["frame_type"] = string(sel.FrameType)
	}
	if sel.MinPrice != nil || sel.MaxPrice != nil {
		price := bson.M{}
		if sel.MinPrice != nil {
			price["$gte"] = *sel.MinPrice
		}
		if sel.MaxPrice != nil {
			price["$lte"] = *sel.MaxPrice
		}
		filter["price"] = price
	}
	if sel.Available != nil {
		filter["available"] = *sel.Available
	}
	return filter
}

func containsFold(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}

func exactFold(v string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(v) + "$", "$options": "i"}
}

func (s *MongoFrameService) Get(ctx context.Context, id int64) (*models.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var d mongoFrameDoc
	if err := s.frames.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFrameNotFound
		}
		return nil, err
	}
	return frameDocToModel(d), nil
}

func (s *MongoFrameService) Create(ctx context.Context, f *models.Frame) (*models.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	id, err := s.ids.Next(ctx)
	if err != nil {
		return nil, err
	}
	doc := frameToDoc(f)
	doc.ID = id
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if err := s.assignVariationIDs(ctx, doc.Variations); err != nil {
		return nil, err
	}

	if _, err := s.frames.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return frameDocToModel(doc), nil
}

func (s *MongoFrameService) Update(ctx context.Context, f *models.Frame) (*models.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	doc := frameToDoc(f)
	if err := s.assignVariationIDs(ctx, doc.Variations); err != nil {
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"name":        doc.Name,
			"description": doc.Description,
			"price":       doc.Price,
			"category":    doc.Category,
			"gender":      doc.Gender,
			"size":        doc.Size,
			"frame_type":  doc.FrameType,
			"shape":       doc.Shape,
			"brand":       doc.Brand,
			"dimensions":  doc.Dimensions,
			"available":   doc.Available,
			"image_urls":  doc.ImageURLs,
			"variations":  doc.Variations,
			"updated_at":  time.Now().UTC(),
		},
	}

	res := s.frames.FindOneAndUpdate(
		ctx,
		bson.M{"_id": f.ID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoFrameDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFrameNotFound
		}
		return nil, err
	}
	return frameDocToModel(updated), nil
}

func (s *MongoFrameService) Delete(ctx context.Context, id int64) (*models.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var d mongoFrameDoc
	if err := s.frames.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFrameNotFound
		}
		return nil, err
	}
	return frameDocToModel(d), nil
}

func (s *MongoFrameService) assignVariationIDs(ctx context.Context, variations []models.Variation) error {
	for i := range variations {
		if variations[i].ID != nil && *variations[i].ID > 0 {
			continue
		}
		id, err := s.variations.Next(ctx)
		if err != nil {
			return err
		}
		variations[i].ID = &id
	}
	return nil
}
