package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrHotelNotFound = fmt.Errorf("hotel %w", ErrNotFound)
	ErrRoomNotFound  = fmt.Errorf("room %w", ErrNotFound)
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrTitleRequired   = fmt.Errorf("%w: title is required", ErrValidation)
	ErrNoFilesProvided = fmt.Errorf("%w: no images provided", ErrValidation)
)

var (
	ErrSourceNotFound       = errors.New("source image not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrCorruptRecord        = errors.New("corrupt record")
)
