package app

import (
	"encoding/base64"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_listings/internal/domain"
)

// project derives a read model from a stored hotel without touching what is persisted.
func project(h domain.Hotel, rep domain.Representation, baseURL string, images domain.ImageStore) domain.HotelView {
	h = h.Clone()
	v := domain.HotelView{Hotel: h, Rooms: make([]domain.RoomView, len(h.Rooms))}
	for i, r := range h.Rooms {
		v.Rooms[i] = domain.RoomView{Room: r}
	}

	switch rep {
	case domain.RepresentURL:
		v.Images = absoluteURLs(baseURL, h.Images)
		for i := range v.Rooms {
			v.Rooms[i].RoomImage = absoluteURLs(baseURL, v.Rooms[i].RoomImage)
		}
	case domain.RepresentBase64:
		v.ImageData = inline(images, h.Images)
		for i := range v.Rooms {
			v.Rooms[i].RoomImageData = inline(images, v.Rooms[i].RoomImage)
		}
	}
	// the embedded Hotel.Rooms is shadowed by v.Rooms in JSON; keep it in step for Go callers
	v.Hotel.Rooms = make([]domain.Room, len(v.Rooms))
	for i, r := range v.Rooms {
		v.Hotel.Rooms[i] = r.Room
	}
	return v
}

func absoluteURLs(baseURL string, refs []string) []string {
	base := strings.TrimRight(baseURL, "/")
	out := make([]string, len(refs))
	for i, ref := range refs {
		if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			out[i] = ref
			continue
		}
		out[i] = base + "/" + strings.TrimLeft(ref, "/")
	}
	return out
}

// inline returns one data URI per ref; unreadable refs yield "" so indexes line up.
func inline(images domain.ImageStore, refs []string) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		if ref == "" || images == nil {
			continue
		}
		data, mt, err := images.Read(ref)
		if err != nil {
			log.Warn().Err(err).Str("ref", ref).Msg("inline image failed")
			continue
		}
		out[i] = "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	return out
}
