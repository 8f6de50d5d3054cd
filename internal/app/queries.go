package app

import (
	"context"
	"time"

	"hotel_listings/internal/domain"
)

func hotelKey(id string) string { return "hotel:" + id }

// lookupKey holds the resolved hotelID for every identifier sharing slug. A
// write to any hotel whose id or slug folds to slug drops the whole group.
func lookupKey(slug string) string { return "hotel-lookup:" + slug }

type QueryService struct {
	repo     domain.HotelRepository
	images   domain.ImageStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.HotelRepository, img domain.ImageStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, images: img, cache: c, cacheTTL: ttl}
}

// Retrieve resolves identifier as a hotelID or a slug. Slugs are not unique;
// the first record in store order wins.
func (s *QueryService) Retrieve(ctx context.Context, identifier string) (domain.Hotel, error) {
	slug := Slugify(identifier)
	if h, ok := s.cached(ctx, identifier, slug); ok {
		return h, nil
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return domain.Hotel{}, err
	}
	for _, h := range all {
		if h.HotelID == identifier || (slug != "" && h.Slug == slug) {
			s.remember(ctx, identifier, slug, h)
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrHotelNotFound
}

// View is Retrieve plus the requested image representation. baseURL is only
// used for RepresentURL.
func (s *QueryService) View(ctx context.Context, identifier string, rep domain.Representation, baseURL string) (domain.HotelView, error) {
	h, err := s.Retrieve(ctx, identifier)
	if err != nil {
		return domain.HotelView{}, err
	}
	return project(h, rep, baseURL, s.images), nil
}

func (s *QueryService) cached(ctx context.Context, identifier, slug string) (domain.Hotel, bool) {
	if s.cache == nil || slug == "" {
		return domain.Hotel{}, false
	}
	var ids map[string]string
	if ok, _ := s.cache.Get(ctx, lookupKey(slug), &ids); !ok {
		return domain.Hotel{}, false
	}
	id, ok := ids[identifier]
	if !ok {
		return domain.Hotel{}, false
	}
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, hotelKey(id), &h); ok && h.HotelID == id {
		return h, true
	}
	// resolution is still valid, only the document expired
	h, err := s.repo.Load(ctx, id)
	if err != nil {
		return domain.Hotel{}, false
	}
	s.cacheHotel(ctx, h)
	return h, true
}

// remember records that identifier resolved to h. An identifier whose slug is
// empty can only match by id, and ids never fold to an empty slug, so those
// lookups always miss and are not cached.
func (s *QueryService) remember(ctx context.Context, identifier, slug string, h domain.Hotel) {
	if s.cache == nil || slug == "" {
		return
	}
	s.cacheHotel(ctx, h)
	ids := map[string]string{}
	_, _ = s.cache.Get(ctx, lookupKey(slug), &ids)
	if ids == nil {
		ids = map[string]string{}
	}
	ids[identifier] = h.HotelID
	_ = s.cache.Set(ctx, lookupKey(slug), ids, int(s.cacheTTL.Seconds()))
}

func (s *QueryService) cacheHotel(ctx context.Context, h domain.Hotel) {
	_ = s.cache.Set(ctx, hotelKey(h.HotelID), h.Clone(), int(s.cacheTTL.Seconds()))
}
