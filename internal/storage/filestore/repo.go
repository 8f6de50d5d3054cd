// Package filestore is the directory-backed Record Store: one <hotelID>.json per hotel.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_listings/internal/adapters/observability"
	"hotel_listings/internal/domain"
)

const backend = "file"

type Repo struct{ dir string }

// New creates dir if it does not exist.
func New(dir string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Repo{dir: dir}, nil
}

func (r *Repo) Dir() string { return r.dir }

func (r *Repo) Load(ctx context.Context, hotelID string) (domain.Hotel, error) {
	p, ok := r.path(hotelID)
	if !ok {
		observability.ObserveStore(backend, "load", "not_found")
		return domain.Hotel{}, domain.ErrHotelNotFound
	}
	h, err := readHotel(p)
	observability.ObserveStore(backend, "load", result(err))
	return h, err
}

// Save overwrites the whole document. Not atomic: a crash mid-write can leave
// a truncated file, which later reads report as domain.ErrCorruptRecord.
func (r *Repo) Save(ctx context.Context, h domain.Hotel) error {
	p, ok := r.path(h.HotelID)
	if !ok {
		return fmt.Errorf("%w: invalid hotel id %q", domain.ErrValidation, h.HotelID)
	}
	h.Normalize()
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(p, b, 0o644)
	observability.ObserveStore(backend, "save", result(err))
	return err
}

// FindAll returns every readable record in filename order. Corrupt records are
// logged and skipped so one bad file cannot hide the rest.
func (r *Repo) FindAll(ctx context.Context) ([]domain.Hotel, error) {
	ents, err := os.ReadDir(r.dir)
	if err != nil {
		observability.ObserveStore(backend, "find_all", "error")
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]domain.Hotel, 0, len(names))
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := readHotel(filepath.Join(r.dir, n))
		switch {
		case errors.Is(err, domain.ErrCorruptRecord):
			log.Warn().Err(err).Str("file", n).Msg("skipping corrupt hotel record")
			continue
		case errors.Is(err, domain.ErrNotFound):
			continue // removed between ReadDir and ReadFile
		case err != nil:
			observability.ObserveStore(backend, "find_all", "error")
			return nil, err
		}
		out = append(out, h)
	}
	observability.ObserveStore(backend, "find_all", "ok")
	return out, nil
}

func (r *Repo) Exists(ctx context.Context, hotelID string) (bool, error) {
	p, ok := r.path(hotelID)
	if !ok {
		return false, nil
	}
	_, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// path maps an id onto its file; ids that could escape the directory are rejected.
func (r *Repo) path(hotelID string) (string, bool) {
	if hotelID == "" || hotelID == "." || hotelID == ".." || strings.ContainsAny(hotelID, `/\`) {
		return "", false
	}
	return filepath.Join(r.dir, hotelID+".json"), true
}

func readHotel(p string) (domain.Hotel, error) {
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Hotel{}, domain.ErrHotelNotFound
	}
	if err != nil {
		return domain.Hotel{}, err
	}
	var h domain.Hotel
	if err := json.Unmarshal(b, &h); err != nil {
		return domain.Hotel{}, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, filepath.Base(p), err)
	}
	h.Normalize()
	return h, nil
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCorruptRecord):
		return "corrupt"
	}
	return "error"
}
