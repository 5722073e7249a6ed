// Package mongostore implements the repo interfaces on MongoDB.
// Places carry a GeoJSON location under a 2dsphere index and a text index
// over name and description; reviews live in their own collection and are
// joined with $lookup; each user document holds an ordered hearts array.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/repo"
	"github.com/pkordes/placebook/internal/slug"
)

// Store wraps one database. Use the accessor methods to obtain repo views.
type Store struct {
	db  *mongo.Database
	now func() time.Time
}

// New returns a Store over db. Call EnsureIndexes once at startup.
func New(db *mongo.Database) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Places returns the store as a repo.PlaceRepo.
func (s *Store) Places() repo.PlaceRepo { return placeRepo{s} }

// Ratings returns the store as a repo.RatingRepo.
func (s *Store) Ratings() repo.RatingRepo { return ratingRepo{s} }

// Hearts returns the store as a repo.HeartRepo.
func (s *Store) Hearts() repo.HeartRepo { return heartRepo{s} }

// Aggregates returns the store as a repo.AggregateSource.
func (s *Store) Aggregates() repo.AggregateSource { return aggregateSource{s} }

func (s *Store) places() *mongo.Collection  { return s.db.Collection(PlacesCollection) }
func (s *Store) reviews() *mongo.Collection { return s.db.Collection(ReviewsCollection) }
func (s *Store) users() *mongo.Collection   { return s.db.Collection(UsersCollection) }

// EnsureIndexes creates the indexes every query relies on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.places().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "created", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongostore.EnsureIndexes: places: %w", err)
	}
	_, err = s.reviews().Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "place", Value: 1}}})
	if err != nil {
		return fmt.Errorf("mongostore.EnsureIndexes: reviews: %w", err)
	}
	return nil
}

// AddRating stores a review. It does not check that the place exists;
// service.RatingService does.
func (s *Store) AddRating(ctx context.Context, rt domain.Rating) (domain.Rating, error) {
	rt.ID = uuid.New()
	rt.CreatedAt = s.now()
	doc := reviewDoc{
		ID:      rt.ID.String(),
		Place:   rt.PlaceID.String(),
		Rating:  rt.Rating,
		Text:    rt.Text,
		Author:  rt.AuthorID.String(),
		Created: rt.CreatedAt,
	}
	if _, err := s.reviews().InsertOne(ctx, doc); err != nil {
		return domain.Rating{}, fmt.Errorf("mongostore.AddRating: %w", err)
	}
	return rt, nil
}

// newestFirst is the listing sort order; _id breaks ties so pages never overlap.
var newestFirst = bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: 1}}

// hasTags matches documents whose tags array has at least one element.
var hasTags = bson.M{"tags.0": bson.M{"$exists": true}}

// mapWriteError converts a duplicate key error on the slug index into domain.ErrConflict.
func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: slug already taken", domain.ErrConflict)
	}
	return err
}

func decodePlaces(ctx context.Context, cur *mongo.Cursor) ([]domain.Place, error) {
	defer cur.Close(ctx)

	out := []domain.Place{}
	for cur.Next(ctx) {
		var d placeDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		out = append(out, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return out, nil
}

type placeRepo struct{ s *Store }

func (r placeRepo) Create(ctx context.Context, p domain.Place) (domain.Place, error) {
	p.ID = uuid.New()
	p.CreatedAt = r.s.now()
	doc := toPlaceDoc(p)

	if _, err := r.s.places().InsertOne(ctx, doc); err != nil {
		return domain.Place{}, fmt.Errorf("mongostore.PlaceRepo.Create: %w", mapWriteError(err))
	}
	return doc.toDomain(), nil
}

func (r placeRepo) findOne(ctx context.Context, filter bson.M) (domain.Place, error) {
	var d placeDoc
	if err := r.s.places().FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Place{}, domain.ErrNotFound
		}
		return domain.Place{}, err
	}
	return d.toDomain(), nil
}

func (r placeRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Place, error) {
	p, err := r.findOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return domain.Place{}, fmt.Errorf("mongostore.PlaceRepo.GetByID: %w", err)
	}
	return p, nil
}

func (r placeRepo) GetBySlug(ctx context.Context, s string) (domain.Place, error) {
	p, err := r.findOne(ctx, bson.M{"slug": s})
	if err != nil {
		return domain.Place{}, fmt.Errorf("mongostore.PlaceRepo.GetBySlug: %w", err)
	}
	return p, nil
}

func (r placeRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Place, error) {
	if len(ids) == 0 {
		return []domain.Place{}, nil
	}
	cur, err := r.s.places().Find(ctx, bson.M{"_id": bson.M{"$in": idStrings(ids)}})
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.GetMany: %w", err)
	}
	places, err := decodePlaces(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.GetMany: %w", err)
	}
	return places, nil
}

// Update sets the mutable fields only; author and created are never in the $set.
func (r placeRepo) Update(ctx context.Context, p domain.Place) (domain.Place, error) {
	doc := toPlaceDoc(p)
	update := bson.M{"$set": bson.M{
		"name":        doc.Name,
		"slug":        doc.Slug,
		"description": doc.Description,
		"tags":        doc.Tags,
		"location":    doc.Location,
		"photo":       doc.Photo,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out placeDoc
	err := r.s.places().FindOneAndUpdate(ctx, bson.M{"_id": doc.ID}, update, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Place{}, fmt.Errorf("mongostore.PlaceRepo.Update: %w", domain.ErrNotFound)
		}
		return domain.Place{}, fmt.Errorf("mongostore.PlaceRepo.Update: %w", mapWriteError(err))
	}
	return out.toDomain(), nil
}

func (r placeRepo) List(ctx context.Context, pp domain.PaginationParams) ([]domain.Place, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(pp.Offset())).
		SetLimit(int64(pp.Limit))

	cur, err := r.s.places().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.List: %w", err)
	}
	places, err := decodePlaces(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.List: %w", err)
	}
	return places, nil
}

func (r placeRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.s.places().CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongostore.PlaceRepo.Count: %w", err)
	}
	return n, nil
}

func (r placeRepo) ListByTag(ctx context.Context, tag string) ([]domain.Place, error) {
	filter := hasTags
	if tag != "" {
		filter = bson.M{"tags": tag}
	}
	cur, err := r.s.places().Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.ListByTag: %w", err)
	}
	places, err := decodePlaces(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.ListByTag: %w", err)
	}
	return places, nil
}

func (r placeRepo) SlugsMatching(ctx context.Context, candidate string, exclude uuid.UUID) ([]string, error) {
	filter := bson.M{
		"slug": primitive.Regex{Pattern: slug.PatternBody(candidate), Options: "i"},
		"_id":  bson.M{"$ne": exclude.String()},
	}
	opts := options.Find().
		SetProjection(bson.M{"slug": 1}).
		SetSort(bson.D{{Key: "slug", Value: 1}})

	cur, err := r.s.places().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.SlugsMatching: %w", err)
	}
	defer cur.Close(ctx)

	out := []string{}
	for cur.Next(ctx) {
		var d struct {
			Slug string `bson:"slug"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("mongostore.PlaceRepo.SlugsMatching: decode: %w", err)
		}
		out = append(out, d.Slug)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.SlugsMatching: cursor: %w", err)
	}
	return out, nil
}

// Near relies on $near returning documents nearest first.
func (r placeRepo) Near(ctx context.Context, q domain.NearQuery) ([]domain.Place, error) {
	filter := bson.M{"location": bson.M{"$near": bson.M{
		"$geometry": bson.M{
			"type":        "Point",
			"coordinates": []float64{q.Point.Lng, q.Point.Lat},
		},
		"$maxDistance": q.MaxDistanceMeters,
	}}}

	cur, err := r.s.places().Find(ctx, filter, options.Find().SetLimit(int64(q.Limit)))
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.Near: %w", err)
	}
	places, err := decodePlaces(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.Near: %w", err)
	}
	return places, nil
}

// Search uses the text index. $text matches whole stemmed words, so unlike
// the Postgres store a partial word only matches once it stems to the same root.
func (r placeRepo) Search(ctx context.Context, terms []string, limit int) ([]domain.Place, error) {
	if len(terms) == 0 {
		return []domain.Place{}, nil
	}
	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}}).
		SetLimit(int64(limit))

	cur, err := r.s.places().Find(ctx, bson.M{"$text": bson.M{"$search": strings.Join(terms, " ")}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.Search: %w", err)
	}
	places, err := decodePlaces(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("mongostore.PlaceRepo.Search: %w", err)
	}
	return places, nil
}

type ratingRepo struct{ s *Store }

func (r ratingRepo) ListByPlace(ctx context.Context, placeID uuid.UUID) ([]domain.Rating, error) {
	cur, err := r.s.reviews().Find(ctx, bson.M{"place": placeID.String()}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongostore.RatingRepo.ListByPlace: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.Rating{}
	for cur.Next(ctx) {
		var d reviewDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("mongostore.RatingRepo.ListByPlace: decode: %w", err)
		}
		out = append(out, d.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore.RatingRepo.ListByPlace: cursor: %w", err)
	}
	return out, nil
}

func (r ratingRepo) Add(ctx context.Context, rt domain.Rating) (domain.Rating, error) {
	return r.s.AddRating(ctx, rt)
}

type heartRepo struct{ s *Store }

// Toggle is a single pipeline update with upsert: the document is created on
// first use and the membership test and write happen server-side in one step.
func (r heartRepo) Toggle(ctx context.Context, userID domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error) {
	id := placeID.String()
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$hearts", bson.A{}}}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "hearts", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{id, current}}},
			bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: current},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", id}}}},
			}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{id}}}},
		}}}}}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d userDoc
	if err := r.s.users().FindOneAndUpdate(ctx, bson.M{"_id": userID.String()}, update, opts).Decode(&d); err != nil {
		return nil, fmt.Errorf("mongostore.HeartRepo.Toggle: %w", err)
	}
	return parseIDs(d.Hearts), nil
}

func (r heartRepo) List(ctx context.Context, userID domain.UserID) ([]uuid.UUID, error) {
	var d userDoc
	if err := r.s.users().FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []uuid.UUID{}, nil
		}
		return nil, fmt.Errorf("mongostore.HeartRepo.List: %w", err)
	}
	return parseIDs(d.Hearts), nil
}

type aggregateSource struct{ s *Store }

func (a aggregateSource) PlaceTags(ctx context.Context) ([]domain.PlaceTags, error) {
	opts := options.Find().
		SetProjection(bson.M{"tags": 1}).
		SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := a.s.places().Find(ctx, hasTags, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore.AggregateSource.PlaceTags: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.PlaceTags{}
	for cur.Next(ctx) {
		var d struct {
			ID   string   `bson:"_id"`
			Tags []string `bson:"tags"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("mongostore.AggregateSource.PlaceTags: decode: %w", err)
		}
		out = append(out, domain.PlaceTags{PlaceID: parseID(d.ID), Tags: d.Tags})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore.AggregateSource.PlaceTags: cursor: %w", err)
	}
	return out, nil
}

// RatedPlaces joins reviews onto places with $lookup; the averaging itself
// happens in the aggregate package.
func (a aggregateSource) RatedPlaces(ctx context.Context) ([]domain.RatedPlace, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ReviewsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "place"},
			{Key: "as", Value: "reviews"},
		}}},
	}
	cur, err := a.s.places().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongostore.AggregateSource.RatedPlaces: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.RatedPlace{}
	for cur.Next(ctx) {
		var d ratedPlaceDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("mongostore.AggregateSource.RatedPlaces: decode: %w", err)
		}
		rp := domain.RatedPlace{Place: d.Place.toDomain(), Ratings: make([]float64, 0, len(d.Reviews))}
		for _, rv := range d.Reviews {
			rp.Ratings = append(rp.Ratings, rv.Rating)
		}
		out = append(out, rp)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore.AggregateSource.RatedPlaces: cursor: %w", err)
	}
	return out, nil
}
