package mongostore

import (
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/domain"
)

// Collection names.
const (
	PlacesCollection  = "places"
	ReviewsCollection = "reviews"
	UsersCollection   = "users"
)

// geoJSON is a GeoJSON point as required by the 2dsphere index, with the
// street address stored alongside it.
type geoJSON struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
	Address     string    `bson:"address"`
}

type placeDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Slug        string    `bson:"slug"`
	Description string    `bson:"description"`
	Tags        []string  `bson:"tags"`
	Location    geoJSON   `bson:"location"`
	Photo       string    `bson:"photo"`
	Author      string    `bson:"author"`
	Created     time.Time `bson:"created"`
}

type reviewDoc struct {
	ID      string    `bson:"_id"`
	Place   string    `bson:"place"`
	Rating  float64   `bson:"rating"`
	Text    string    `bson:"text"`
	Author  string    `bson:"author"`
	Created time.Time `bson:"created"`
}

type userDoc struct {
	ID     string   `bson:"_id"`
	Hearts []string `bson:"hearts"`
}

// ratedPlaceDoc is a place after $lookup of its reviews.
type ratedPlaceDoc struct {
	Place   placeDoc    `bson:",inline"`
	Reviews []reviewDoc `bson:"reviews"`
}

func toPlaceDoc(p domain.Place) placeDoc {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return placeDoc{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Tags:        tags,
		Location: geoJSON{
			Type:        "Point",
			Coordinates: []float64{p.Location.Point.Lng, p.Location.Point.Lat},
			Address:     p.Location.Address,
		},
		Photo:   p.Photo,
		Author:  p.AuthorID.String(),
		Created: p.CreatedAt,
	}
}

func (d placeDoc) toDomain() domain.Place {
	p := domain.Place{
		ID:          parseID(d.ID),
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Tags:        d.Tags,
		Location:    domain.Location{Address: d.Location.Address},
		Photo:       d.Photo,
		AuthorID:    domain.UserID(d.Author),
		CreatedAt:   d.Created.UTC(),
	}
	if len(d.Location.Coordinates) == 2 {
		p.Location.Point = domain.Point{Lng: d.Location.Coordinates[0], Lat: d.Location.Coordinates[1]}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func (d reviewDoc) toDomain() domain.Rating {
	return domain.Rating{
		ID:        parseID(d.ID),
		PlaceID:   parseID(d.Place),
		Rating:    d.Rating,
		Text:      d.Text,
		AuthorID:  domain.UserID(d.Author),
		CreatedAt: d.Created.UTC(),
	}
}

// parseID returns uuid.Nil for ids not written by this package.
func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(ss []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		out = append(out, parseID(s))
	}
	return out
}
