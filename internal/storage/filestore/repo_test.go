package filestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotel_listings/internal/domain"
	"hotel_listings/internal/storage/filestore"
)

func newRepo(t *testing.T) *filestore.Repo {
	t.Helper()
	r, err := filestore.New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	h := domain.Hotel{HotelID: "SVE349", Slug: "sunshine-inn", Title: "Sunshine Inn", GuestCount: 2}

	if err := r.Save(ctx, h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := r.Load(ctx, "SVE349")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "Sunshine Inn" || got.GuestCount != 2 || got.Images == nil || got.Rooms == nil {
		t.Fatalf("unexpected hotel: %+v", got)
	}

	// documents are stored pretty-printed and never with null collections
	b, err := os.ReadFile(filepath.Join(r.Dir(), "SVE349.json"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"hotelID\": \"SVE349\"") || strings.Contains(string(b), "null") {
		t.Fatalf("unexpected document layout:\n%s", b)
	}
}

func TestSaveOverwrites(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	_ = r.Save(ctx, domain.Hotel{HotelID: "SVE349", Title: "A"})
	_ = r.Save(ctx, domain.Hotel{HotelID: "SVE349", Title: "B"})

	got, err := r.Load(ctx, "SVE349")
	if err != nil || got.Title != "B" {
		t.Fatalf("expected overwrite, got %+v err=%v", got, err)
	}
}

func TestLoadNotFound(t *testing.T) {
	r := newRepo(t)
	for _, id := range []string{"NOPE00", "", "../etc/passwd", ".."} {
		if _, err := r.Load(context.Background(), id); !errors.Is(err, domain.ErrHotelNotFound) {
			t.Fatalf("%q: expected ErrHotelNotFound, got %v", id, err)
		}
	}
}

func TestSaveRejectsUnsafeID(t *testing.T) {
	r := newRepo(t)
	err := r.Save(context.Background(), domain.Hotel{HotelID: "../escape"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFindAllSkipsCorrupt(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	_ = r.Save(ctx, domain.Hotel{HotelID: "BBB222", Title: "B"})
	_ = r.Save(ctx, domain.Hotel{HotelID: "AAA111", Title: "A"})
	if err := os.WriteFile(filepath.Join(r.Dir(), "BAD000.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(r.Dir(), "README.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	all, err := r.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 || all[0].HotelID != "AAA111" || all[1].HotelID != "BBB222" {
		t.Fatalf("unexpected records: %+v", all)
	}

	if _, err := r.Load(ctx, "BAD000"); !errors.Is(err, domain.ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestExists(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	_ = r.Save(ctx, domain.Hotel{HotelID: "SVE349"})

	if ok, err := r.Exists(ctx, "SVE349"); err != nil || !ok {
		t.Fatalf("expected exists, got %v %v", ok, err)
	}
	if ok, err := r.Exists(ctx, "NOPE00"); err != nil || ok {
		t.Fatalf("expected missing, got %v %v", ok, err)
	}
}
