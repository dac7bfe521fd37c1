package service

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
	"github.com/set-night/screenwatch/internal/domain"
)

// Source is the raw screen-capture primitive. Capture returns the full frame
// of the given display, domain.ErrTargetGone if that display is no longer
// attached, or domain.ErrNoDisplay when no capture surface exists at all.
type Source interface {
	Capture(ctx context.Context, display int) (image.Image, error)
}

// DisplaySource captures attached displays. A session's capture target
// handle is a display index; index 0 is the primary display and serves as
// the fallback when the originally-bound display disappears.
type DisplaySource struct{}

func NewDisplaySource() *DisplaySource {
	return &DisplaySource{}
}

func (s *DisplaySource) Capture(ctx context.Context, display int) (image.Image, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, domain.ErrNoDisplay
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display %d of %d: %w", display, n, domain.ErrTargetGone)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := screenshot.GetDisplayBounds(display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", display, err)
	}
	return img, nil
}
