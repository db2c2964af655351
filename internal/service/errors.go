package service

import (
	"errors"

	"github.com/jmylchreest/supervideo/internal/models"
)

// Service-level errors.
var (
	// ErrUnsupportedURL is returned when no rule claims a URL.
	ErrUnsupportedURL = errors.New("unsupported media url")

	// ErrViewNotFound is returned when a view does not exist.
	ErrViewNotFound = models.ErrViewNotFound

	// ErrInvalidProgress is returned for negative times or a position past
	// the known duration.
	ErrInvalidProgress = errors.New("invalid playback progress")

	// ErrNotHLS is returned when probing a URL that is not an HLS manifest.
	ErrNotHLS = errors.New("url is not an HLS manifest")

	// ErrProbeDisabled is returned when manifest probing is switched off.
	ErrProbeDisabled = errors.New("hls probing is disabled")
)
