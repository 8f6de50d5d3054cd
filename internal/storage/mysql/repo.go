// Package mysql stores hotel documents as JSON rows; it satisfies the same
// Record Store contract as the file backend.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_listings/internal/adapters/observability"
	"hotel_listings/internal/domain"
)

const backend = "mysql"

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Load(ctx context.Context, hotelID string) (domain.Hotel, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, getHotelSQL, hotelID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveStore(backend, "load", "not_found")
		return domain.Hotel{}, domain.ErrHotelNotFound
	}
	if err != nil {
		observability.ObserveStore(backend, "load", "error")
		return domain.Hotel{}, err
	}
	h, err := decode(hotelID, doc)
	if err != nil {
		observability.ObserveStore(backend, "load", "corrupt")
		return domain.Hotel{}, err
	}
	observability.ObserveStore(backend, "load", "ok")
	return h, nil
}

func (r *Repo) Save(ctx context.Context, h domain.Hotel) error {
	h.Normalize()
	doc, err := json.Marshal(h)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, upsertHotelSQL, h.HotelID, h.Slug, string(doc))
	if err != nil {
		observability.ObserveStore(backend, "save", "error")
		return err
	}
	observability.ObserveStore(backend, "save", "ok")
	return nil
}

// FindAll skips rows whose document does not decode, like the file backend.
func (r *Repo) FindAll(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		observability.ObserveStore(backend, "find_all", "error")
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var id string
		var doc sql.RawBytes
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		h, err := decode(id, doc)
		if err != nil {
			log.Warn().Err(err).Str("hotel_id", id).Msg("skipping corrupt hotel row")
			continue
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		observability.ObserveStore(backend, "find_all", "error")
		return nil, err
	}
	observability.ObserveStore(backend, "find_all", "ok")
	return out, nil
}

func (r *Repo) Exists(ctx context.Context, hotelID string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, existsHotelSQL, hotelID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func decode(id string, doc []byte) (domain.Hotel, error) {
	var h domain.Hotel
	if err := json.Unmarshal(doc, &h); err != nil {
		return domain.Hotel{}, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, id, err)
	}
	h.Normalize()
	return h, nil
}
