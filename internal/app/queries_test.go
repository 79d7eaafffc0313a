package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rentals/internal/app"
	"rentals/internal/domain"
	"rentals/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	store map[string][]byte
	gets  int
	hits  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	ctx := context.Background()
	if _, err := s.Users().CreateMany(ctx, []domain.User{
		{UserID: "u1", Name: "Ann", Email: "a@x.com"},
		{UserID: "u2", Name: "Bob", Email: "b@x.com"},
	}); err != nil {
		t.Fatalf("users: %v", err)
	}
	o, err := s.Owners().Create(ctx, "u1")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := s.Properties().Create(ctx, domain.Property{
		PropertyID: "p1", OwnerID: o.ID, Title: "Loft", City: ptr("Lisbon"),
		PricePerNight: decimal.NewFromInt(90), MaxGuests: 2, Type: domain.PropertyCondo, Amenities: []string{"wifi"},
	}); err != nil {
		t.Fatalf("property: %v", err)
	}
	if _, err := s.Photos().Create(ctx, domain.Photo{PhotoID: "ph1", PropertyID: "p1", ImageURL: "http://img/1"}); err != nil {
		t.Fatalf("photo: %v", err)
	}
	if _, err := s.Reviews().Create(ctx, domain.Review{ReviewID: "rv1", PropertyID: "p1", ReviewerUserID: "u2", Rating: 4.5}); err != nil {
		t.Fatalf("review: %v", err)
	}
	return s
}

// ---- tests ----

func TestGetProperty_CacheMissThenHit(t *testing.T) {
	s := seedStore(t)
	cache := &fakeCache{}
	q := app.NewQueryService(s, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	pv, err := q.GetProperty(context.Background(), "p1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if pv.Title != "Loft" || pv.OwnerUserID != "u1" || len(pv.Photos) != 1 {
		t.Fatalf("unexpected property: %+v", pv)
	}

	// Mutate store to ensure second read indeed comes from cache
	changed := pv.Property
	changed.Title = "SHOULD NOT SEE THIS"
	if _, err := s.Properties().Update(context.Background(), changed); err != nil {
		t.Fatalf("update: %v", err)
	}

	pv2, err := q.GetProperty(context.Background(), "p1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if pv2.Title != "Loft" || cache.hits != 1 {
		t.Fatalf("expected cached title, got %q (hits=%d)", pv2.Title, cache.hits)
	}
	if !pv2.PricePerNight.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("price lost in cache: %s", pv2.PricePerNight)
	}
}

func TestGetProperty_NotFound(t *testing.T) {
	q := app.NewQueryService(seedStore(t), nil, time.Minute)
	if _, err := q.GetProperty(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReviews_Cache(t *testing.T) {
	s := seedStore(t)
	cache := &fakeCache{}
	q := app.NewQueryService(s, cache, 10*time.Minute)

	out, err := q.ListReviews(context.Background(), "p1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 1 || out[0].ReviewerUserID != "u2" {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// Add a review, call again -> should come from cache
	if _, err := s.Reviews().Create(context.Background(), domain.Review{ReviewID: "rv2", PropertyID: "p1", ReviewerUserID: "u1"}); err != nil {
		t.Fatalf("review: %v", err)
	}
	out2, _ := q.ListReviews(context.Background(), "p1")
	if len(out2) != 1 {
		t.Fatalf("expected cached reviews, got %d", len(out2))
	}

	if _, err := q.ListReviews(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOwnerProperties(t *testing.T) {
	q := app.NewQueryService(seedStore(t), nil, time.Minute)

	ps, err := q.ListOwnerProperties(context.Background(), "u1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(ps) != 1 || ps[0].PropertyID != "p1" {
		t.Fatalf("unexpected properties: %+v", ps)
	}

	// u2 is a user but not an owner
	if _, err := q.ListOwnerProperties(context.Background(), "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
