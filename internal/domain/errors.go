package domain

import "errors"

var (
	ErrUnknownKind          = errors.New("unknown content kind")
	ErrModelNotConfigured   = errors.New("configuration error: model credentials are missing")
	ErrTriggerNotConfigured = errors.New("configuration error: trigger secret is missing")
	ErrRunInProgress        = errors.New("another curation run holds the lease")

	ErrMissingNaturalKey = errors.New("item has no natural key")
	ErrMissingVisual     = errors.New("item has no image or embed url")
	ErrHeroTooSmall      = errors.New("hero image below minimum dimensions")
	ErrHeroNotLandscape  = errors.New("hero image aspect ratio too narrow")
)
