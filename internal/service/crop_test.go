package service

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/screenwatch/internal/domain"
)

type stubCropper struct {
	name string
	err  error
}

func (s *stubCropper) Name() string { return s.name }

func (s *stubCropper) Crop(_ context.Context, frame image.Image, area domain.Area) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	rect, err := physicalRect(frame, area)
	if err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy())), nil
}

func testFrame(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestCropChainFirstSuccessWins(t *testing.T) {
	chain := NewCropChain(
		&stubCropper{name: "first"},
		&stubCropper{name: "second", err: errors.New("must not run")},
	)

	result := chain.Run(context.Background(), testFrame(100, 100), domain.Area{Width: 10, Height: 10})

	assert.Equal(t, "first", result.Tier)
	assert.False(t, result.Fallback)
}

func TestCropChainSecondTierSuccessIsNotFlagged(t *testing.T) {
	chain := NewCropChain(
		&stubCropper{name: "first", err: errors.New("tier down")},
		&stubCropper{name: "second"},
	)

	result := chain.Run(context.Background(), testFrame(100, 100), domain.Area{Width: 10, Height: 10})

	assert.Equal(t, "second", result.Tier)
	assert.False(t, result.Fallback)
}

func TestCropChainAllFailDeliversFullFrameFlagged(t *testing.T) {
	frame := testFrame(100, 80)
	chain := NewCropChain(
		&stubCropper{name: "first", err: errors.New("down")},
		&stubCropper{name: "second", err: errors.New("also down")},
	)

	result := chain.Run(context.Background(), frame, domain.Area{Width: 10, Height: 10})

	assert.Equal(t, "full-frame", result.Tier)
	assert.True(t, result.Fallback)
	assert.Equal(t, frame.Bounds(), result.Image.Bounds())
}

func TestPhysicalRectAppliesScale(t *testing.T) {
	frame := testFrame(400, 400)
	rect, err := physicalRect(frame, domain.Area{Left: 10, Top: 20, Width: 30, Height: 40, Scale: 2})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(20, 40, 80, 120), rect)
}

func TestPhysicalRectZeroScaleDefaultsToOne(t *testing.T) {
	frame := testFrame(100, 100)
	rect, err := physicalRect(frame, domain.Area{Left: 5, Top: 5, Width: 10, Height: 10})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(5, 5, 15, 15), rect)
}

func TestPhysicalRectClampsOverhang(t *testing.T) {
	frame := testFrame(100, 100)
	rect, err := physicalRect(frame, domain.Area{Left: 90, Top: 90, Width: 50, Height: 50, Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(90, 90, 100, 100), rect)
}

func TestPhysicalRectRejectsFullyOutside(t *testing.T) {
	frame := testFrame(100, 100)
	_, err := physicalRect(frame, domain.Area{Left: 200, Top: 200, Width: 10, Height: 10, Scale: 1})
	assert.Error(t, err)
}

func TestNativeCropperProducesAreaSizedImage(t *testing.T) {
	cropper := NewNativeCropper()
	out, err := cropper.Crop(context.Background(), testFrame(200, 200), domain.Area{Left: 10, Top: 10, Width: 50, Height: 40, Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}

func TestHelperCropperMissingBinaryFails(t *testing.T) {
	cropper := NewHelperCropper("definitely-not-a-real-binary")
	_, err := cropper.Crop(context.Background(), testFrame(50, 50), domain.Area{Width: 10, Height: 10})
	assert.Error(t, err)
}
