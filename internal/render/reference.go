package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"evovec/internal/model"
)

var ErrEmptyImage = errors.New("image has no pixels")

// LoadReference decodes the image at path into a zero-origin NRGBA surface.
// A positive maxDim scales the image down so its larger side fits.
func LoadReference(path string, maxDim int) (*image.NRGBA, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", &model.InputError{Path: path, Err: err}
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, "", &model.InputError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	if src.Bounds().Empty() {
		return nil, format, &model.InputError{Path: path, Err: ErrEmptyImage}
	}
	return ToNRGBA(src, maxDim), format, nil
}

// ToNRGBA converts img to a straight-alpha surface anchored at the origin,
// downscaling with Catmull-Rom when maxDim is positive and exceeded.
func ToNRGBA(img image.Image, maxDim int) *image.NRGBA {
	sb := img.Bounds()
	w, h := FitWithin(sb.Dx(), sb.Dy(), maxDim)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), img, sb.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, sb, draw.Src, nil)
	return dst
}

// FitWithin returns w x h scaled so the larger side is at most maxDim,
// preserving aspect ratio. Sizes never drop below 1.
func FitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		return maxDim, max(nh, 1)
	}
	nw := w * maxDim / h
	return max(nw, 1), maxDim
}
