package domain

import "context"

// HotelRepository is the Record Store: one document per hotelID.
type HotelRepository interface {
	Load(ctx context.Context, hotelID string) (Hotel, error)
	Save(ctx context.Context, h Hotel) error
	FindAll(ctx context.Context) ([]Hotel, error)
	Exists(ctx context.Context, hotelID string) (bool, error)
}

// ImageStore is the Image Persister. Persist returns a reference path of the
// form /uploads/images/<name>.
type ImageStore interface {
	Persist(ctx context.Context, hotelID string, kind ImageKind, seq int, src ImageSource) (string, error)
	Delete(ref string) error
	Read(ref string) (data []byte, mediaType string, err error)
}

// ImageFetcher resolves remote image sources.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mediaType string, err error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}
