package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_listings/internal/domain"
)

const maxIDAttempts = 5

// CreateHotelInput is the create payload. HotelImages and RoomInput.RoomImage
// carry image sources; everything else is copied onto the document as given.
type CreateHotelInput struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	GuestCount    int                  `json:"guestCount"`
	BedroomCount  int                  `json:"bedroomCount"`
	BathroomCount int                  `json:"bathroomCount"`
	Amenities     []string             `json:"amenities"`
	Host          string               `json:"host"`
	Address       string               `json:"address"`
	Latitude      float64              `json:"latitude"`
	Longitude     float64              `json:"longitude"`
	HotelImages   []domain.ImageSource `json:"hotelImages"`
	Rooms         []RoomInput          `json:"rooms"`
}

type RoomInput struct {
	RoomTitle    string               `json:"roomTitle"`
	Title        string               `json:"title"` // older clients send "title"
	RoomSlug     string               `json:"roomSlug"`
	BedroomCount int                  `json:"bedroomCount"`
	RoomImage    []domain.ImageSource `json:"roomImage"`
}

// HotelPatch is a shallow merge: nil fields keep the stored value.
// hotelID and slug are not patchable.
type HotelPatch struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	GuestCount    *int                 `json:"guestCount"`
	BedroomCount  *int                 `json:"bedroomCount"`
	BathroomCount *int                 `json:"bathroomCount"`
	Amenities     *[]string            `json:"amenities"`
	Host          *string              `json:"host"`
	Address       *string              `json:"address"`
	Latitude      *float64             `json:"latitude"`
	Longitude     *float64             `json:"longitude"`
	Images        *[]string            `json:"images"`
	Rooms         *[]domain.Room       `json:"rooms"`
	HotelImages   []domain.ImageSource `json:"hotelImages"`
}

type HotelEditor struct {
	repo   domain.HotelRepository
	images domain.ImageStore
	cache  domain.Cache
	newID  func() string
}

func NewHotelEditor(r domain.HotelRepository, img domain.ImageStore, cache domain.Cache) *HotelEditor {
	return &HotelEditor{repo: r, images: img, cache: cache, newID: NewHotelID}
}

// WithIDGenerator swaps the identifier source (tests use it to force collisions).
func (e *HotelEditor) WithIDGenerator(f func() string) *HotelEditor {
	e.newID = f
	return e
}

func (e *HotelEditor) Create(ctx context.Context, in CreateHotelInput) (domain.Hotel, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Hotel{}, domain.ErrTitleRequired
	}
	if err := validateCounts(in.GuestCount, in.BedroomCount, in.BathroomCount); err != nil {
		return domain.Hotel{}, err
	}
	for _, r := range in.Rooms {
		if r.BedroomCount < 0 {
			return domain.Hotel{}, fmt.Errorf("%w: room bedroomCount must not be negative", domain.ErrValidation)
		}
	}

	id, err := e.allocateID(ctx)
	if err != nil {
		return domain.Hotel{}, err
	}
	slug := Slugify(in.Title)

	images, err := e.persistAll(ctx, id, domain.KindHotel, 0, in.HotelImages)
	if err != nil {
		return domain.Hotel{}, err
	}
	written := append([]string(nil), images...)

	rooms := make([]domain.Room, 0, len(in.Rooms))
	seq := len(images)
	for _, ri := range in.Rooms {
		title := ri.RoomTitle
		if title == "" {
			title = ri.Title
		}
		refs, err := e.persistAll(ctx, id, domain.KindRoom, seq, ri.RoomImage)
		if err != nil {
			e.discard(id, written)
			return domain.Hotel{}, err
		}
		written = append(written, refs...)
		seq += len(refs)
		room := domain.Room{
			HotelSlug:    slug,
			RoomSlug:     ri.RoomSlug,
			RoomImage:    refs,
			RoomTitle:    title,
			BedroomCount: ri.BedroomCount,
		}
		if title != "" {
			room.RoomSlug = Slugify(title)
		}
		rooms = append(rooms, room)
	}

	h := domain.Hotel{
		HotelID:       id,
		Slug:          slug,
		Images:        images,
		Title:         in.Title,
		Description:   in.Description,
		GuestCount:    in.GuestCount,
		BedroomCount:  in.BedroomCount,
		BathroomCount: in.BathroomCount,
		Amenities:     in.Amenities,
		Host:          in.Host,
		Address:       in.Address,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Rooms:         rooms,
	}
	h.Normalize()

	if err := e.repo.Save(ctx, h); err != nil {
		e.discard(id, written)
		return domain.Hotel{}, fmt.Errorf("save hotel %s: %w", id, err)
	}
	// a new hotel can win a slug lookup that used to resolve elsewhere
	e.invalidate(ctx, h.HotelID, h.Slug)

	log.Info().Str("hotel_id", id).Str("slug", slug).Int("images", len(images)).Msg("hotel created")
	return h, nil
}

func (e *HotelEditor) Update(ctx context.Context, hotelID string, p HotelPatch) (domain.Hotel, error) {
	h, err := e.repo.Load(ctx, hotelID)
	if err != nil {
		return domain.Hotel{}, err
	}
	oldSlug := h.Slug
	oldImages := h.Images

	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.GuestCount != nil {
		h.GuestCount = *p.GuestCount
	}
	if p.BedroomCount != nil {
		h.BedroomCount = *p.BedroomCount
	}
	if p.BathroomCount != nil {
		h.BathroomCount = *p.BathroomCount
	}
	if err := validateCounts(h.GuestCount, h.BedroomCount, h.BathroomCount); err != nil {
		return domain.Hotel{}, err
	}
	if p.Amenities != nil {
		h.Amenities = *p.Amenities
	}
	if p.Host != nil {
		h.Host = *p.Host
	}
	if p.Address != nil {
		h.Address = *p.Address
	}
	if p.Latitude != nil {
		h.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		h.Longitude = *p.Longitude
	}
	if p.Images != nil {
		h.Images = *p.Images
	}

	if p.Rooms != nil {
		prev := h.Rooms
		rooms := make([]domain.Room, len(*p.Rooms))
		for i, r := range *p.Rooms {
			switch {
			case r.RoomTitle != "":
				r.RoomSlug = Slugify(r.RoomTitle)
			case r.RoomSlug == "" && i < len(prev):
				r.RoomSlug = prev[i].RoomSlug
			}
			r.HotelSlug = h.Slug
			rooms[i] = r
		}
		h.Rooms = rooms
	}

	if p.Title != nil && *p.Title != h.Title {
		if strings.TrimSpace(*p.Title) == "" {
			return domain.Hotel{}, domain.ErrTitleRequired
		}
		h.Title = *p.Title
		h.Slug = Slugify(h.Title)
		for i := range h.Rooms {
			h.Rooms[i].HotelSlug = h.Slug
		}
	}

	var replaced, written []string
	if len(p.HotelImages) > 0 {
		refs, err := e.persistAll(ctx, h.HotelID, domain.KindHotel, 0, p.HotelImages)
		if err != nil {
			return domain.Hotel{}, err
		}
		replaced, written = oldImages, refs
		h.Images = refs
	}

	h.Normalize()
	if err := e.repo.Save(ctx, h); err != nil {
		e.discard(h.HotelID, written)
		return domain.Hotel{}, fmt.Errorf("save hotel %s: %w", h.HotelID, err)
	}
	e.invalidate(ctx, h.HotelID, oldSlug, h.Slug)
	e.discard(h.HotelID, replaced)
	return h, nil
}

// UploadHotelImages appends to the hotel's images. Unlike Update it never
// removes existing references.
func (e *HotelEditor) UploadHotelImages(ctx context.Context, hotelID string, srcs []domain.ImageSource) ([]string, domain.Hotel, error) {
	if len(srcs) == 0 {
		return nil, domain.Hotel{}, domain.ErrNoFilesProvided
	}
	h, err := e.repo.Load(ctx, hotelID)
	if err != nil {
		return nil, domain.Hotel{}, err
	}
	refs, err := e.persistAll(ctx, h.HotelID, domain.KindHotel, len(h.Images), srcs)
	if err != nil {
		return nil, domain.Hotel{}, err
	}
	h.Images = append(h.Images, refs...)
	if err := e.save(ctx, h); err != nil {
		e.discard(h.HotelID, refs)
		return nil, domain.Hotel{}, err
	}
	return refs, h, nil
}

// UploadRoomImages appends to the roomImage of the first room matching loc.
func (e *HotelEditor) UploadRoomImages(ctx context.Context, hotelID string, loc domain.RoomLocator, srcs []domain.ImageSource) ([]string, domain.Hotel, error) {
	if len(srcs) == 0 {
		return nil, domain.Hotel{}, domain.ErrNoFilesProvided
	}
	h, err := e.repo.Load(ctx, hotelID)
	if err != nil {
		return nil, domain.Hotel{}, err
	}
	idx := h.FindRoom(loc)
	if idx < 0 {
		return nil, domain.Hotel{}, domain.ErrRoomNotFound
	}
	refs, err := e.persistAll(ctx, h.HotelID, domain.KindRoom, len(h.Rooms[idx].RoomImage), srcs)
	if err != nil {
		return nil, domain.Hotel{}, err
	}
	h.Rooms[idx].RoomImage = append(h.Rooms[idx].RoomImage, refs...)
	if err := e.save(ctx, h); err != nil {
		e.discard(h.HotelID, refs)
		return nil, domain.Hotel{}, err
	}
	return refs, h, nil
}

func (e *HotelEditor) save(ctx context.Context, h domain.Hotel) error {
	h.Normalize()
	if err := e.repo.Save(ctx, h); err != nil {
		return fmt.Errorf("save hotel %s: %w", h.HotelID, err)
	}
	e.invalidate(ctx, h.HotelID, h.Slug)
	return nil
}

func (e *HotelEditor) persistAll(ctx context.Context, hotelID string, kind domain.ImageKind, seq int, srcs []domain.ImageSource) ([]string, error) {
	refs := make([]string, 0, len(srcs))
	for i, src := range srcs {
		ref, err := e.images.Persist(ctx, hotelID, kind, seq+i, src)
		if err != nil {
			e.discard(hotelID, refs)
			return nil, fmt.Errorf("persist %s image %d: %w", kind, i, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// discard removes stored images that no saved record references.
func (e *HotelEditor) discard(hotelID string, refs []string) {
	for _, ref := range refs {
		if err := e.images.Delete(ref); err != nil {
			log.Warn().Err(err).Str("hotel_id", hotelID).Str("ref", ref).Msg("delete unreferenced image failed")
		}
	}
}

func (e *HotelEditor) allocateID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := e.newID()
		taken, err := e.repo.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check hotel id %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
		log.Warn().Str("hotel_id", id).Msg("hotel id collision, regenerating")
	}
	return "", fmt.Errorf("allocate hotel id: %d consecutive collisions", maxIDAttempts)
}

func (e *HotelEditor) invalidate(ctx context.Context, hotelID string, slugs ...string) {
	if e.cache == nil {
		return
	}
	keys := []string{hotelKey(hotelID), lookupKey(Slugify(hotelID))}
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, lookupKey(s))
		}
	}
	if err := e.cache.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("hotel_id", hotelID).Msg("cache invalidation failed")
	}
}

func validateCounts(guests, bedrooms, bathrooms int) error {
	switch {
	case guests < 0:
		return fmt.Errorf("%w: guestCount must not be negative", domain.ErrValidation)
	case bedrooms < 0:
		return fmt.Errorf("%w: bedroomCount must not be negative", domain.ErrValidation)
	case bathrooms < 0:
		return fmt.Errorf("%w: bathroomCount must not be negative", domain.ErrValidation)
	}
	return nil
}

// ImportService creates hotels from seed files holding a CreateHotelInput each.
// Relative image paths resolve against the seed file's directory.
type ImportService struct {
	editor *HotelEditor
}

func NewImportService(e *HotelEditor) *ImportService {
	return &ImportService{editor: e}
}

func (s *ImportService) ImportFile(ctx context.Context, path string) (domain.Hotel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Hotel{}, err
	}
	var in CreateHotelInput
	if err := json.Unmarshal(b, &in); err != nil {
		return domain.Hotel{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	dir := filepath.Dir(path)
	resolve := func(srcs []domain.ImageSource) {
		for i := range srcs {
			if srcs[i].Kind == domain.SourcePath && !filepath.IsAbs(srcs[i].Location) {
				srcs[i].Location = filepath.Join(dir, srcs[i].Location)
			}
		}
	}
	resolve(in.HotelImages)
	for i := range in.Rooms {
		resolve(in.Rooms[i].RoomImage)
	}
	return s.editor.Create(ctx, in)
}

// SeedFiles lists *.json files in dir in lexical order.
func SeedFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no seed files found")
	}
	return out, nil
}
