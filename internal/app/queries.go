package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentals/internal/domain"
)

func propertyKey(id string) string            { return fmt.Sprintf("property:%s", id) }
func reviewsKey(propertyID string) string     { return fmt.Sprintf("reviews:%s", propertyID) }
func ownerPropertiesKey(userID string) string { return fmt.Sprintf("owner:%s:properties", userID) }

// maxCachedBytes skips caching oversized payloads.
const maxCachedBytes = 1_000_000

type QueryService struct {
	repos    domain.Repos
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewQueryService reads through c when it is non-nil.
func NewQueryService(r domain.Repos, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repos: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, key, dst)
	return ok
}

func (s *QueryService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if b, _ := json.Marshal(v); len(b) < maxCachedBytes {
		_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
	}
}

func (s *QueryService) GetProperty(ctx context.Context, id string) (domain.PropertyView, error) {
	key := propertyKey(id)
	var pv domain.PropertyView
	if s.cached(ctx, key, &pv) {
		return pv, nil
	}

	p, err := s.repos.Properties().FindByID(ctx, id)
	if err != nil {
		return domain.PropertyView{}, err
	}
	if p == nil {
		return domain.PropertyView{}, domain.ErrNotFound
	}
	owner, err := s.repos.Owners().FindByID(ctx, p.OwnerID)
	if err != nil {
		return domain.PropertyView{}, err
	}
	photos, err := s.repos.Photos().FindByPropertyID(ctx, id)
	if err != nil {
		return domain.PropertyView{}, err
	}

	pv = domain.PropertyView{Property: *p, Photos: photos}
	if pv.Photos == nil {
		pv.Photos = []domain.Photo{}
	}
	if owner != nil {
		pv.OwnerUserID = owner.UserID
	}
	s.store(ctx, key, pv)
	return pv, nil
}

func (s *QueryService) ListReviews(ctx context.Context, propertyID string) ([]domain.Review, error) {
	key := reviewsKey(propertyID)
	var out []domain.Review
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	p, err := s.repos.Properties().FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	rs, err := s.repos.Reviews().FindByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	// copy so callers cannot mutate what was handed to the cache
	out = make([]domain.Review, len(rs))
	copy(out, rs)
	s.store(ctx, key, out)
	return out, nil
}

func (s *QueryService) ListOwnerProperties(ctx context.Context, ownerUserID string) ([]domain.Property, error) {
	key := ownerPropertiesKey(ownerUserID)
	var out []domain.Property
	if s.cached(ctx, key, &out) {
		return out, nil
	}

	o, err := s.repos.Owners().FindByUserID(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	ps, err := s.repos.Properties().FindByOwnerID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	out = make([]domain.Property, len(ps))
	copy(out, ps)
	s.store(ctx, key, out)
	return out, nil
}
