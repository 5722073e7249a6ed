// Package memstore is an in-process implementation of the repo interfaces.
// It backs STORE_DRIVER=memory for local development and the end-to-end
// service tests. All state is lost when the process exits.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/placebook/internal/aggregate"
	"github.com/pkordes/placebook/internal/domain"
	"github.com/pkordes/placebook/internal/geo"
	"github.com/pkordes/placebook/internal/repo"
	"github.com/pkordes/placebook/internal/slug"
)

// Store holds every collection behind one lock. Use the accessor methods to
// obtain the repo views; they all share the same data.
type Store struct {
	mu      sync.RWMutex
	places  map[uuid.UUID]*record
	seq     int64
	ratings []domain.Rating
	hearts  map[domain.UserID][]uuid.UUID
	now     func() time.Time
}

// record is a stored place plus its insertion sequence, which orders places
// created within the same clock tick.
type record struct {
	place domain.Place
	seq   int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		places: make(map[uuid.UUID]*record),
		hearts: make(map[domain.UserID][]uuid.UUID),
		now:    func() time.Time { return time.Now().UTC() },
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

// AddRating stores a rating for an existing place.
func (s *Store) AddRating(_ context.Context, rt domain.Rating) (domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.places[rt.PlaceID]; !ok {
		return domain.Rating{}, fmt.Errorf("memstore.AddRating: %w", domain.ErrNotFound)
	}
	rt.ID = uuid.New()
	rt.CreatedAt = s.now()
	s.ratings = append(s.ratings, rt)
	return rt, nil
}

// newestFirst returns copies of the given records ordered by creation, newest first.
func newestFirst(recs []*record) []domain.Place {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].place.CreatedAt.Equal(recs[j].place.CreatedAt) {
			return recs[i].place.CreatedAt.After(recs[j].place.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})
	out := make([]domain.Place, 0, len(recs))
	for _, r := range recs {
		out = append(out, clonePlace(r.place))
	}
	return out
}

// filter returns the records for which keep is true. Callers hold the lock.
func (s *Store) filter(keep func(domain.Place) bool) []*record {
	out := []*record{}
	for _, r := range s.places {
		if keep(r.place) {
			out = append(out, r)
		}
	}
	return out
}

// slugTaken reports whether another place already owns slug. Callers hold the lock.
func (s *Store) slugTaken(sl string, self uuid.UUID) bool {
	for id, r := range s.places {
		if id != self && r.place.Slug == sl {
			return true
		}
	}
	return false
}

func clonePlace(p domain.Place) domain.Place {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Ratings = nil
	return p
}

type placeRepo struct{ s *Store }

func (r placeRepo) Create(_ context.Context, p domain.Place) (domain.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.slugTaken(p.Slug, uuid.Nil) {
		return domain.Place{}, fmt.Errorf("memstore.PlaceRepo.Create: %w: slug already taken", domain.ErrConflict)
	}
	p.ID = uuid.New()
	p.CreatedAt = r.s.now()
	p = clonePlace(p)
	r.s.seq++
	r.s.places[p.ID] = &record{place: p, seq: r.s.seq}
	return clonePlace(p), nil
}

func (r placeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.places[id]
	if !ok {
		return domain.Place{}, fmt.Errorf("memstore.PlaceRepo.GetByID: %w", domain.ErrNotFound)
	}
	return clonePlace(rec.place), nil
}

func (r placeRepo) GetBySlug(_ context.Context, sl string) (domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, rec := range r.s.places {
		if rec.place.Slug == sl {
			return clonePlace(rec.place), nil
		}
	}
	return domain.Place{}, fmt.Errorf("memstore.PlaceRepo.GetBySlug: %w", domain.ErrNotFound)
}

func (r placeRepo) GetMany(_ context.Context, ids []uuid.UUID) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Place{}
	for _, id := range ids {
		if rec, ok := r.s.places[id]; ok {
			out = append(out, clonePlace(rec.place))
		}
	}
	return out, nil
}

// Update copies only the mutable fields onto the stored record.
func (r placeRepo) Update(_ context.Context, p domain.Place) (domain.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.places[p.ID]
	if !ok {
		return domain.Place{}, fmt.Errorf("memstore.PlaceRepo.Update: %w", domain.ErrNotFound)
	}
	if r.s.slugTaken(p.Slug, p.ID) {
		return domain.Place{}, fmt.Errorf("memstore.PlaceRepo.Update: %w: slug already taken", domain.ErrConflict)
	}
	cur := &rec.place
	cur.Name = p.Name
	cur.Slug = p.Slug
	cur.Description = p.Description
	cur.Tags = slices.Clone(p.Tags)
	cur.Location = p.Location
	cur.Photo = p.Photo
	return clonePlace(*cur), nil
}

func (r placeRepo) List(_ context.Context, pp domain.PaginationParams) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := newestFirst(r.s.filter(func(domain.Place) bool { return true }))
	start := min(pp.Offset(), len(all))
	end := min(start+pp.Limit, len(all))
	return all[start:end], nil
}

func (r placeRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.places)), nil
}

func (r placeRepo) ListByTag(_ context.Context, tag string) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return newestFirst(r.s.filter(func(p domain.Place) bool {
		if tag == "" {
			return len(p.Tags) > 0
		}
		return slices.Contains(p.Tags, tag)
	})), nil
}

func (r placeRepo) SlugsMatching(_ context.Context, candidate string, exclude uuid.UUID) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []string{}
	for id, rec := range r.s.places {
		if id != exclude && slug.Matches(candidate, rec.place.Slug) {
			out = append(out, rec.place.Slug)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Near scans every place; the store is meant for small data sets.
func (r placeRepo) Near(_ context.Context, q domain.NearQuery) ([]domain.Place, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type hit struct {
		place domain.Place
		dist  float64
	}
	hits := []hit{}
	for _, rec := range r.s.places {
		pt := rec.place.Location.Point
		d := geo.Haversine(q.Point.Lat, q.Point.Lng, pt.Lat, pt.Lng)
		if d <= q.MaxDistanceMeters {
			hits = append(hits, hit{place: clonePlace(rec.place), dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]domain.Place, 0, min(len(hits), q.Limit))
	for _, h := range hits {
		if len(out) == q.Limit {
			break
		}
		out = append(out, h.place)
	}
	return out, nil
}

// Search scores a place by how many terms prefix some word of its name or
// description.
func (r placeRepo) Search(_ context.Context, terms []string, limit int) ([]domain.Place, error) {
	if len(terms) == 0 {
		return []domain.Place{}, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type hit struct {
		rec   *record
		score int
	}
	hits := []hit{}
	for _, rec := range r.s.places {
		words := domain.SearchTerms(rec.place.Name + " " + rec.place.Description)
		score := 0
		for _, t := range terms {
			if slices.ContainsFunc(words, func(w string) bool { return strings.HasPrefix(w, t) }) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{rec: rec, score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].rec.seq > hits[j].rec.seq
	})

	out := []domain.Place{}
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, clonePlace(h.rec.place))
	}
	return out, nil
}

type ratingRepo struct{ s *Store }

func (r ratingRepo) ListByPlace(_ context.Context, placeID uuid.UUID) ([]domain.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Rating{}
	for i := len(r.s.ratings) - 1; i >= 0; i-- {
		if r.s.ratings[i].PlaceID == placeID {
			out = append(out, r.s.ratings[i])
		}
	}
	return out, nil
}

func (r ratingRepo) Add(ctx context.Context, rt domain.Rating) (domain.Rating, error) {
	return r.s.AddRating(ctx, rt)
}

type heartRepo struct{ s *Store }

func (r heartRepo) Toggle(_ context.Context, userID domain.UserID, placeID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	set := r.s.hearts[userID]
	if i := slices.Index(set, placeID); i >= 0 {
		set = slices.Delete(set, i, i+1)
	} else {
		set = append(set, placeID)
	}
	r.s.hearts[userID] = set
	return slices.Clone(set), nil
}

func (r heartRepo) List(_ context.Context, userID domain.UserID) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	set := slices.Clone(r.s.hearts[userID])
	if set == nil {
		set = []uuid.UUID{}
	}
	return set, nil
}

type aggregateSource struct{ s *Store }

func (a aggregateSource) PlaceTags(_ context.Context) ([]domain.PlaceTags, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	recs := a.s.filter(func(p domain.Place) bool { return len(p.Tags) > 0 })
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]domain.PlaceTags, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.PlaceTags{PlaceID: r.place.ID, Tags: slices.Clone(r.place.Tags)})
	}
	return out, nil
}

func (a aggregateSource) RatedPlaces(_ context.Context) ([]domain.RatedPlace, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	places := newestFirst(a.s.filter(func(domain.Place) bool { return true }))
	return aggregate.Lookup(places, slices.Clone(a.s.ratings)), nil
}
