package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"hotel_listings/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu      sync.Mutex
	docs    map[string]domain.Hotel
	saves   int
	scans   int
	taken   map[string]bool // ids reported as existing without a document
	saveErr error
}

func newFakeRepo(hs ...domain.Hotel) *fakeRepo {
	r := &fakeRepo{docs: map[string]domain.Hotel{}, taken: map[string]bool{}}
	for _, h := range hs {
		h.Normalize()
		r.docs[h.HotelID] = h
	}
	return r
}

func (f *fakeRepo) Load(ctx context.Context, id string) (domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.docs[id]
	if !ok {
		return domain.Hotel{}, domain.ErrHotelNotFound
	}
	return h.Clone(), nil
}

func (f *fakeRepo) Save(ctx context.Context, h domain.Hotel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.docs[h.HotelID] = h.Clone()
	return nil
}

func (f *fakeRepo) FindAll(ctx context.Context) ([]domain.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	out := make([]domain.Hotel, 0, len(f.docs))
	for _, h := range f.docs {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HotelID < out[j].HotelID })
	return out, nil
}

func (f *fakeRepo) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok || f.taken[id], nil
}

type fakeImages struct {
	mu        sync.Mutex
	persisted []domain.ImageSource
	deleted   []string
	files     map[string][]byte
	fail      error
	failAfter int // when > 0, Persist fails once this many images are stored
}

func newFakeImages() *fakeImages { return &fakeImages{files: map[string][]byte{}} }

func (f *fakeImages) Persist(ctx context.Context, hotelID string, kind domain.ImageKind, seq int, src domain.ImageSource) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil && (f.failAfter == 0 || len(f.persisted) >= f.failAfter) {
		return "", f.fail
	}
	f.persisted = append(f.persisted, src)
	ref := fmt.Sprintf("/uploads/images/%s_%s_%d.jpg", hotelID, kind, seq)
	f.files[ref] = src.Data
	return ref, nil
}

func (f *fakeImages) Delete(ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	delete(f.files, ref)
	return nil
}

func (f *fakeImages) Read(ref string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[ref]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return b, "image/jpeg", nil
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
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

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *fakeCache) has(prefix string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// sequence returns an id generator that yields ids in order, then repeats the last.
func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id
	}
}

func ptr[T any](v T) *T { return &v }
