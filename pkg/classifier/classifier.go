// Package classifier decides whether a single camera frame shows a user
// who is paying attention to the screen.
//
// A frame counts as focused when a frontal face is found roughly in the
// middle of the frame and at least one eye is visible in the upper part of
// that face. Every other outcome, including frames that cannot be decoded,
// counts as not focused.
package classifier

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

const (
	centerMinX = 0.3
	centerMaxX = 0.7
	centerMinY = 0.2
	centerMaxY = 0.8

	eyeRegionRatio = 0.6
)

type IClassifier interface {
	Classify(frame []byte) bool
	Evaluate(frame []byte) Verdict
}

// Classifier holds the read-only face and eye detectors. It keeps no other
// state, so one instance can serve any number of goroutines.
type Classifier struct {
	face Detector
	eyes Detector
}

func New(face, eyes Detector) *Classifier {
	return &Classifier{
		face: face,
		eyes: eyes,
	}
}

func (c *Classifier) Classify(frame []byte) bool {
	return c.Evaluate(frame).Focused()
}

// Evaluate runs the full cascade and reports why a frame was rejected.
// It never panics.
func (c *Classifier) Evaluate(frame []byte) (verdict Verdict) {
	verdict = DecodeError
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stage": verdict.String(),
			}).Error("Recovered panic during classification")
			if verdict != DecodeError {
				verdict = DetectorFailure
			}
		}
	}()

	gray, err := decodeGray(frame)
	if err != nil {
		return DecodeError
	}

	verdict = DetectorFailure
	return c.evaluateGray(gray)
}

func (c *Classifier) evaluateGray(gray *image.Gray) Verdict {
	faces := c.face.Detect(gray, FaceParams)
	face, ok := largest(faces)
	if !ok {
		return NoFace
	}

	if !centered(face, gray.Bounds()) {
		return OffCenter
	}

	upper := int(float64(face.Dy()) * eyeRegionRatio)
	if upper <= 0 {
		return NoEyes
	}

	region := cropGray(gray, image.Rect(face.Min.X, face.Min.Y, face.Max.X, face.Min.Y+upper))
	if region.Bounds().Empty() {
		return NoEyes
	}

	if len(c.eyes.Detect(region, EyeParams)) == 0 {
		return NoEyes
	}

	return Focused
}

// largest picks the detection with the biggest area. The first one wins a
// tie.
func largest(rects []image.Rectangle) (image.Rectangle, bool) {
	if len(rects) == 0 {
		return image.Rectangle{}, false
	}

	best := rects[0]
	bestArea := area(best)
	for _, r := range rects[1:] {
		if a := area(r); a > bestArea {
			best, bestArea = r, a
		}
	}

	return best, true
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

func centered(face, frame image.Rectangle) bool {
	w := float64(frame.Dx())
	h := float64(frame.Dy())

	cx := float64(face.Min.X) + float64(face.Dx())/2.0
	cy := float64(face.Min.Y) + float64(face.Dy())/2.0

	return cx >= w*centerMinX && cx <= w*centerMaxX &&
		cy >= h*centerMinY && cy <= h*centerMaxY
}
