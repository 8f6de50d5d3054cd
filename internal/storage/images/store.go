// Package images persists uploaded image payloads as files and hands back
// reference paths that can be embedded in hotel documents.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"hotel_listings/internal/adapters/observability"
	"hotel_listings/internal/domain"
)

// RefPrefix is the public path every stored image reference starts with.
const RefPrefix = "/uploads/images/"

const maxNameAttempts = 100

type Store struct {
	dir     string
	fetcher domain.ImageFetcher
	now     func() time.Time
}

// New creates dir if needed. fetcher may be nil, in which case url sources fail
// with domain.ErrSourceNotFound.
func New(dir string, fetcher domain.ImageFetcher) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Store{dir: dir, fetcher: fetcher, now: time.Now}, nil
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Persist(ctx context.Context, hotelID string, kind domain.ImageKind, seq int, src domain.ImageSource) (string, error) {
	data, declared, name, err := s.materialize(ctx, src)
	if err != nil {
		return "", err
	}
	mt := mediaType(data, declared, name)
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, mt)
	}

	label := sanitize(strings.TrimSuffix(name, filepath.Ext(name)))
	if label == "" {
		label = strconv.Itoa(seq)
	}
	stem := fmt.Sprintf("%s_%s_%d_%s", hotelID, kind, s.now().UnixMilli(), label)
	ext := extension(name, mt)

	for i := 0; i < maxNameAttempts; i++ {
		file := stem + ext
		if i > 0 {
			file = stem + "-" + strconv.Itoa(i) + ext
		}
		err := writeExclusive(filepath.Join(s.dir, file), data)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write image: %w", err)
		}
		observability.ObserveImage(string(kind), src.Label())
		return RefPrefix + file, nil
	}
	return "", fmt.Errorf("write image: no free name for %s", stem)
}

// Delete removes the file behind ref. Missing files are not an error.
func (s *Store) Delete(ref string) error {
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Read(ref string) ([]byte, string, error) {
	p, err := s.resolve(ref)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, ref)
	}
	if err != nil {
		return nil, "", err
	}
	return data, mediaType(data, "", p), nil
}

func (s *Store) resolve(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) materialize(ctx context.Context, src domain.ImageSource) (data []byte, mt, name string, err error) {
	switch src.Kind {
	case domain.SourceBytes:
		return src.Data, src.MediaType, src.Name, nil

	case domain.SourceBase64:
		data, mt, err := decodeBase64(src.Encoded)
		if err != nil {
			return nil, "", "", err
		}
		if src.MediaType != "" {
			mt = src.MediaType
		}
		return data, mt, src.Name, nil

	case domain.SourcePath:
		data, err := os.ReadFile(src.Location)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", "", fmt.Errorf("%w: %s", domain.ErrSourceNotFound, src.Location)
		}
		if err != nil {
			return nil, "", "", fmt.Errorf("read source image: %w", err)
		}
		name := src.Name
		if name == "" {
			name = filepath.Base(src.Location)
		}
		return data, src.MediaType, name, nil

	case domain.SourceURL:
		if s.fetcher == nil {
			return nil, "", "", fmt.Errorf("%w: remote sources are disabled", domain.ErrSourceNotFound)
		}
		data, mt, err := s.fetcher.Fetch(ctx, src.Location)
		if err != nil {
			return nil, "", "", err
		}
		name := src.Name
		if name == "" {
			if u, perr := url.Parse(src.Location); perr == nil {
				name = path.Base(u.Path)
			}
		}
		if src.MediaType != "" {
			mt = src.MediaType
		}
		return data, mt, name, nil
	}
	return nil, "", "", fmt.Errorf("%w: unknown image source kind %q", domain.ErrValidation, src.Kind)
}

// decodeBase64 accepts plain base64 or a data URI ("data:image/png;base64,....").
func decodeBase64(s string) ([]byte, string, error) {
	var mt string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: malformed data URI", domain.ErrValidation)
		}
		mt = strings.TrimSuffix(meta, ";base64")
		s = payload
	}
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, mt, nil
		}
	}
	return nil, "", fmt.Errorf("%w: invalid base64 image payload", domain.ErrValidation)
}

// mediaType trusts a declared type, then the file extension, then content sniffing.
func mediaType(data []byte, declared, name string) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(strings.ToLower(ext)); byExt != "" {
			mt, _, _ := mime.ParseMediaType(byExt)
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return mt
}

func extension(name, mt string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && len(ext) <= 6 && sanitize(ext[1:]) == ext[1:] {
		return ext
	}
	if m := mimetype.Lookup(mt); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// sanitize keeps [A-Za-z0-9-], maps everything else to single hyphens, and caps length.
func sanitize(s string) string {
	var b strings.Builder
	hyphen := true
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
		} else if !hyphen {
			b.WriteByte('-')
			hyphen = true
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}

func writeExclusive(p string, data []byte) error {
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(p)
		return err
	}
	return f.Close()
}
