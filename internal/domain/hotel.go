package domain

// Hotel is the aggregate root persisted as one JSON document per hotelID.
type Hotel struct {
	HotelID       string   `json:"hotelID"`
	Slug          string   `json:"slug"`
	Images        []string `json:"images"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	GuestCount    int      `json:"guestCount"`
	BedroomCount  int      `json:"bedroomCount"`
	BathroomCount int      `json:"bathroomCount"`
	Amenities     []string `json:"amenities"`
	Host          string   `json:"host"`
	Address       string   `json:"address"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	Rooms         []Room   `json:"rooms"`
}

// Room is owned by exactly one Hotel. HotelSlug mirrors the owner's slug.
type Room struct {
	HotelSlug    string   `json:"hotelSlug"`
	RoomSlug     string   `json:"roomSlug"`
	RoomImage    []string `json:"roomImage"`
	RoomTitle    string   `json:"roomTitle"`
	BedroomCount int      `json:"bedroomCount"`
}

// Normalize replaces nil slices with empty ones so documents never carry JSON nulls.
func (h *Hotel) Normalize() {
	if h.Images == nil {
		h.Images = []string{}
	}
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	if h.Rooms == nil {
		h.Rooms = []Room{}
	}
	for i := range h.Rooms {
		if h.Rooms[i].RoomImage == nil {
			h.Rooms[i].RoomImage = []string{}
		}
	}
}

// Clone returns a deep copy, so cached or stored values are never aliased by callers.
func (h Hotel) Clone() Hotel {
	out := h
	out.Images = append([]string(nil), h.Images...)
	out.Amenities = append([]string(nil), h.Amenities...)
	if h.Rooms != nil {
		out.Rooms = make([]Room, len(h.Rooms))
		for i, r := range h.Rooms {
			r.RoomImage = append([]string(nil), r.RoomImage...)
			out.Rooms[i] = r
		}
	}
	out.Normalize()
	return out
}

// FindRoom returns the index of the first room matching the locator, or -1.
func (h *Hotel) FindRoom(loc RoomLocator) int {
	for i, r := range h.Rooms {
		if loc.Slug != "" && r.RoomSlug == loc.Slug {
			return i
		}
		if loc.Title != "" && r.RoomTitle == loc.Title {
			return i
		}
	}
	return -1
}

// RoomLocator selects a room by slug or by title; exactly one is expected to be set.
type RoomLocator struct {
	Slug  string
	Title string
}

// Read models

type Representation string

const (
	RepresentPath   Representation = "path"
	RepresentURL    Representation = "url"
	RepresentBase64 Representation = "base64"
)

// ParseRepresentation maps a query value onto a Representation; unknown values fall back to path.
func ParseRepresentation(s string) Representation {
	switch Representation(s) {
	case RepresentURL, RepresentBase64:
		return Representation(s)
	}
	return RepresentPath
}

// HotelView is a Hotel projected for a caller. ImageData and RoomView.RoomImageData
// are only filled for the base64 representation.
type HotelView struct {
	Hotel
	Rooms     []RoomView `json:"rooms"`
	ImageData []string   `json:"imageData,omitempty"`
}

type RoomView struct {
	Room
	RoomImageData []string `json:"roomImageData,omitempty"`
}
