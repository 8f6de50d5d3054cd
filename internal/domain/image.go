package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ImageKind string

const (
	KindHotel ImageKind = "hotel"
	KindRoom  ImageKind = "room"
)

type SourceKind string

const (
	SourceBytes  SourceKind = "bytes"
	SourceBase64 SourceKind = "base64"
	SourcePath   SourceKind = "path"
	SourceURL    SourceKind = "url"
)

// ImageSource is one image payload. Which fields are meaningful depends on Kind:
// Data (bytes), Encoded (base64, plain or data URI), Location (path or url).
// Name and MediaType are optional hints.
type ImageSource struct {
	Kind      SourceKind
	Data      []byte
	Encoded   string
	Location  string
	Name      string
	MediaType string
}

func FromBytes(name, mediaType string, data []byte) ImageSource {
	return ImageSource{Kind: SourceBytes, Data: data, Name: name, MediaType: mediaType}
}

func FromBase64(encoded string) ImageSource {
	return ImageSource{Kind: SourceBase64, Encoded: encoded}
}

func FromPath(path string) ImageSource {
	return ImageSource{Kind: SourcePath, Location: path}
}

func FromURL(url string) ImageSource {
	return ImageSource{Kind: SourceURL, Location: url}
}

// ParseImageSource classifies a bare string: data URIs are base64,
// http(s) links are urls, anything else is a filesystem path.
func ParseImageSource(s string) ImageSource {
	switch {
	case strings.HasPrefix(s, "data:"):
		return FromBase64(s)
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return FromURL(s)
	default:
		return FromPath(s)
	}
}

type imageSourceObject struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	Base64    string `json:"base64"`
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
}

func (s *ImageSource) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = ParseImageSource(str)
		return nil
	}
	var o imageSourceObject
	if err := json.Unmarshal(b, &o); err != nil {
		return fmt.Errorf("image source must be a string or object: %w", err)
	}
	switch {
	case o.Base64 != "":
		*s = FromBase64(o.Base64)
	case o.URL != "":
		*s = FromURL(o.URL)
	case o.Path != "":
		*s = FromPath(o.Path)
	default:
		return fmt.Errorf("image source object needs one of path, url or base64")
	}
	s.Name, s.MediaType = o.Name, o.MediaType
	return nil
}

// Label is used in metrics and logs; it never carries payload data.
func (s ImageSource) Label() string {
	if s.Kind == "" {
		return "unknown"
	}
	return string(s.Kind)
}
