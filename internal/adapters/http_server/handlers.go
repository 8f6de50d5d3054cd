package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_listings/internal/app"
	"hotel_listings/internal/domain"
)

const formField = "images"

type Handlers struct {
	Q *app.QueryService
	E *app.HotelEditor
	// BaseURL overrides the request-derived origin for url projections.
	BaseURL        string
	MaxUploadBytes int64
}

type uploadBody struct {
	ImagePaths []string             `json:"imagePaths"`
	Images     []domain.ImageSource `json:"images"`
}

type uploadResult struct {
	UploadedImages []string     `json:"uploadedImages"`
	Hotel          domain.Hotel `json:"hotel"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/hotel", h.createHotel)
		r.Get("/hotel/{id}", h.getHotel)
		r.Put("/hotel/{id}", h.updateHotel)
		r.Post("/hotel/{id}/images", h.uploadImages)
		r.Post("/images/{id}", h.uploadMultipart)
		r.Post("/images", h.uploadRoomByTitle)
	})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in app.CreateHotelInput
	if err := h.decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPayload, err.Error())
		return
	}
	hotel, err := h.E.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hotel)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	rep := domain.ParseRepresentation(r.URL.Query().Get("images"))
	view, err := h.Q.View(r.Context(), chi.URLParam(r, "id"), rep, h.baseURL(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	etag, body := calcETagAndBody(view)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	var p app.HotelPatch
	if err := h.decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPayload, err.Error())
		return
	}
	hotel, err := h.E.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{
		Status: "success",
		Data:   map[string]domain.Hotel{"hotel": hotel},
	})
}

// uploadImages accepts either a JSON body of image sources or a multipart
// form; type=room targets the room named by roomSlug.
func (h *Handlers) uploadImages(w http.ResponseWriter, r *http.Request) {
	var (
		srcs    []domain.ImageSource
		missing = msgNoImagePaths
	)
	if isMultipart(r) {
		missing = msgNoFiles
		files, err := h.readFiles(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidPayload, err.Error())
			return
		}
		srcs = files
	} else {
		var body uploadBody
		if err := h.decodeJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidPayload, err.Error())
			return
		}
		for _, p := range body.ImagePaths {
			if strings.TrimSpace(p) != "" {
				srcs = append(srcs, domain.ParseImageSource(p))
			}
		}
		srcs = append(srcs, body.Images...)
	}
	if len(srcs) == 0 {
		writeError(w, http.StatusBadRequest, missing, "")
		return
	}

	q := r.URL.Query()
	switch strings.ToLower(q.Get("type")) {
	case "", string(domain.KindHotel):
		h.finishUpload(w, r, chi.URLParam(r, "id"), srcs, nil)
	case string(domain.KindRoom):
		slug := q.Get("roomSlug")
		if slug == "" {
			writeError(w, http.StatusBadRequest, "roomSlug is required for room images", "")
			return
		}
		h.finishUpload(w, r, chi.URLParam(r, "id"), srcs, &domain.RoomLocator{Slug: slug})
	default:
		writeError(w, http.StatusBadRequest, msgInvalidPayload, "type must be hotel or room")
	}
}

// uploadMultipart stores files against the hotel, or against the room whose
// slug is given as roomID.
func (h *Handlers) uploadMultipart(w http.ResponseWriter, r *http.Request) {
	srcs, err := h.readFiles(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPayload, err.Error())
		return
	}
	if len(srcs) == 0 {
		writeError(w, http.StatusBadRequest, msgNoFiles, "")
		return
	}
	var loc *domain.RoomLocator
	if room := r.URL.Query().Get("roomID"); room != "" {
		loc = &domain.RoomLocator{Slug: room}
	}
	h.finishUpload(w, r, chi.URLParam(r, "id"), srcs, loc)
}

func (h *Handlers) uploadRoomByTitle(w http.ResponseWriter, r *http.Request) {
	srcs, err := h.readFiles(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPayload, err.Error())
		return
	}
	if len(srcs) == 0 {
		writeError(w, http.StatusBadRequest, msgNoFiles, "")
		return
	}
	hotelID := r.FormValue("hotelId")
	if hotelID == "" {
		writeError(w, http.StatusBadRequest, msgInvalidPayload, "hotelId is required")
		return
	}
	h.finishUpload(w, r, hotelID, srcs, &domain.RoomLocator{Title: r.FormValue("roomTitle")})
}

func (h *Handlers) finishUpload(w http.ResponseWriter, r *http.Request, hotelID string, srcs []domain.ImageSource, loc *domain.RoomLocator) {
	var (
		refs  []string
		hotel domain.Hotel
		err   error
		msg   = "Hotel images uploaded successfully"
	)
	if loc == nil {
		refs, hotel, err = h.E.UploadHotelImages(r.Context(), hotelID, srcs)
	} else {
		msg = "Room images uploaded successfully"
		refs, hotel, err = h.E.UploadRoomImages(r.Context(), hotelID, *loc, srcs)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{
		Status:  "success",
		Message: msg,
		Data:    uploadResult{UploadedImages: refs, Hotel: hotel},
	})
}

func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// readFiles parses a multipart form and returns its "images" parts in order.
func (h *Handlers) readFiles(w http.ResponseWriter, r *http.Request) ([]domain.ImageSource, error) {
	if !isMultipart(r) {
		return nil, errors.New("expected multipart/form-data")
	}
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = 32 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, err
	}
	var out []domain.ImageSource
	for _, fh := range r.MultipartForm.File[formField] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		out = append(out, domain.FromBytes(fh.Filename, fh.Header.Get("Content-Type"), data))
	}
	return out, nil
}

func (h *Handlers) baseURL(r *http.Request) string {
	if h.BaseURL != "" {
		return strings.TrimRight(h.BaseURL, "/")
	}
	return requestBaseURL(r)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
