package classifier

import "image"

// Params configures one multi-scale cascade pass.
type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

var (
	FaceParams = Params{ScaleFactor: 1.3, MinNeighbors: 5, MinSize: image.Pt(60, 60)}
	EyeParams  = Params{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: image.Pt(15, 15)}
)

// Detector finds candidate regions of one feature in a grayscale buffer.
// Implementations must not mutate the buffer and must be safe for
// concurrent use.
type Detector interface {
	Detect(img *image.Gray, p Params) []image.Rectangle
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(img *image.Gray, p Params) []image.Rectangle

func (f DetectorFunc) Detect(img *image.Gray, p Params) []image.Rectangle {
	return f(img, p)
}
