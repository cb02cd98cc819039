package domain

import "fmt"

const (
	HeroMinWidth       = 1280
	HeroMinHeight      = 720
	HeroMinAspectRatio = 1.3
)

// ValidateHero enforces the publication invariant for hero banners.
func ValidateHero(width, height int) error {
	if width < HeroMinWidth || height < HeroMinHeight {
		return fmt.Errorf("%w: %dx%d, need at least %dx%d", ErrHeroTooSmall, width, height, HeroMinWidth, HeroMinHeight)
	}
	ratio := float64(width) / float64(height)
	if ratio < HeroMinAspectRatio {
		return fmt.Errorf("%w: %.2f < %.2f", ErrHeroNotLandscape, ratio, HeroMinAspectRatio)
	}
	return nil
}

// Validate applies the per-kind hard requirements checked before any write.
func (d Draft) Validate() error {
	if d.NaturalKey == "" {
		return ErrMissingNaturalKey
	}
	if d.Kind.RequiresVisual() && !d.HasVisual() {
		return ErrMissingVisual
	}
	if d.Kind == KindHero {
		return ValidateHero(d.Width, d.Height)
	}
	return nil
}
