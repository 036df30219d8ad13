package classifier

import (
	"bytes"
	"errors"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// MaxFramePixels caps the declared width*height of a frame. Decoders
// allocate the full pixel buffer from the header before reading any pixel
// data, so the header is checked first.
const MaxFramePixels = 4096 * 4096

var (
	errEmptyFrame    = errors.New("empty frame")
	errFrameTooLarge = errors.New("frame dimensions exceed limit")
)

// decodeGray decodes an encoded frame into a grayscale buffer anchored at
// the origin. Luma uses the same 0.299/0.587/0.114 weights as OpenCV's
// BGR2GRAY conversion.
func decodeGray(frame []byte) (*image.Gray, error) {
	if len(frame) == 0 {
		return nil, errEmptyFrame
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errEmptyFrame
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxFramePixels {
		return nil, errFrameTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(frame), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errEmptyFrame
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	return gray, nil
}

// cropGray copies r out of src into a compact buffer anchored at the origin,
// so detectors can hand Pix straight to native code.
func cropGray(src *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(src.Bounds())
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		from := src.PixOffset(r.Min.X, r.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+r.Dx()], src.Pix[from:from+r.Dx()])
	}
	return dst
}
