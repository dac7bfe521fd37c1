package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os/exec"

	"github.com/set-night/screenwatch/internal/config"
	"github.com/set-night/screenwatch/internal/domain"
)

// Cropper extracts the selected area from a full frame. Implementations are
// ordered by trust and tried in sequence by CropChain.
type Cropper interface {
	Name() string
	Crop(ctx context.Context, frame image.Image, area domain.Area) (image.Image, error)
}

// CropResult is the uniform outcome of the fallback chain. Fallback is true
// only when every cropper failed and the full frame was delivered instead.
type CropResult struct {
	Image    image.Image
	Tier     string
	Fallback bool
}

// CropChain tries each cropper in order and short-circuits on the first
// success. When all of them fail the chain still succeeds: it delivers the
// uncropped frame flagged as a fallback so the cycle keeps running.
type CropChain struct {
	croppers []Cropper
}

func NewCropChain(croppers ...Cropper) *CropChain {
	return &CropChain{croppers: croppers}
}

func (c *CropChain) Run(ctx context.Context, frame image.Image, area domain.Area) CropResult {
	for _, cropper := range c.croppers {
		cropped, err := cropper.Crop(ctx, frame, area)
		if err == nil {
			return CropResult{Image: cropped, Tier: cropper.Name()}
		}
		bounds := frame.Bounds()
		slog.Warn("crop tier failed",
			"tier", cropper.Name(),
			"area", area.String(),
			"source_width", bounds.Dx(),
			"source_height", bounds.Dy(),
			"scale", area.Scale,
			"error", err,
		)
	}
	return CropResult{Image: frame, Tier: "full-frame", Fallback: true}
}

// physicalRect converts the logical area to physical pixels and clamps it to
// the frame's bounds. Out-of-bounds selections are clamped rather than
// rejected so the caller always gets some image back.
func physicalRect(frame image.Image, area domain.Area) (image.Rectangle, error) {
	scale := area.Scale
	if scale <= 0 {
		scale = 1
	}
	rect := image.Rect(
		int(float64(area.Left)*scale),
		int(float64(area.Top)*scale),
		int(float64(area.Left+area.Width)*scale),
		int(float64(area.Top+area.Height)*scale),
	)
	clamped := rect.Intersect(frame.Bounds())
	if clamped.Empty() {
		return image.Rectangle{}, fmt.Errorf("area %s is entirely outside the %v frame", area, frame.Bounds())
	}
	return clamped, nil
}

// NativeCropper crops in-process. Fast and isolated; nothing outside the
// daemon can interfere with it, so it is the first tier.
type NativeCropper struct{}

func NewNativeCropper() *NativeCropper {
	return &NativeCropper{}
}

func (c *NativeCropper) Name() string { return "native" }

func (c *NativeCropper) Crop(ctx context.Context, frame image.Image, area domain.Area) (image.Image, error) {
	rect, err := physicalRect(frame, area)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), frame, rect.Min, draw.Src)
	return out, nil
}

// HelperCropper shells out to an ImageMagick binary. It is the second tier:
// slower, subject to whatever is installed on the host, and bounded by an
// explicit timeout, expiry counting as failure.
type HelperCropper struct {
	binary string
}

func NewHelperCropper(binary string) *HelperCropper {
	return &HelperCropper{binary: binary}
}

func (c *HelperCropper) Name() string { return "helper" }

func (c *HelperCropper) Crop(ctx context.Context, frame image.Image, area domain.Area) (image.Image, error) {
	rect, err := physicalRect(frame, area)
	if err != nil {
		return nil, err
	}

	var in bytes.Buffer
	if err := png.Encode(&in, frame); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, config.CropTimeout)
	defer cancel()

	geometry := fmt.Sprintf("%dx%d+%d+%d", rect.Dx(), rect.Dy(), rect.Min.X, rect.Min.Y)
	cmd := exec.CommandContext(ctx, c.binary, "png:-", "-crop", geometry, "+repage", "png:-")
	cmd.Stdin = &in

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s crop timed out after %s", c.binary, config.CropTimeout)
		}
		return nil, fmt.Errorf("%s crop: %w: %s", c.binary, err, stderr.String())
	}

	cropped, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode %s output: %w", c.binary, err)
	}
	return cropped, nil
}
