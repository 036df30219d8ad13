package cascade

import (
	"errors"
	"fmt"
	"image"
	"os"

	"FocusSentry/pkg/classifier"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var ErrCascadeNotLoaded = errors.New("cascade definition could not be loaded")

type ICascade interface {
	classifier.Detector
	Close() error
}

// Cascade is a Haar cascade detector. OpenCV cascade objects keep scratch
// buffers between calls, so a fixed set of identically loaded instances is
// kept and each Detect call checks one out.
type Cascade struct {
	path      string
	instances chan *gocv.CascadeClassifier
	all       []*gocv.CascadeClassifier
}

func New(path string, instances int) (*Cascade, error) {
	if instances < 1 {
		instances = 1
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCascadeNotLoaded, path, err)
	}

	c := &Cascade{
		path:      path,
		instances: make(chan *gocv.CascadeClassifier, instances),
	}

	for i := 0; i < instances; i++ {
		cc := gocv.NewCascadeClassifier()
		if !cc.Load(path) {
			cc.Close()
			c.Close()
			return nil, fmt.Errorf("%w: %s", ErrCascadeNotLoaded, path)
		}
		c.all = append(c.all, &cc)
		c.instances <- &cc
	}

	logrus.WithFields(logrus.Fields{
		"cascade":   path,
		"instances": instances,
		"opencv":    gocv.Version(),
	}).Info("Cascade loaded")

	return c, nil
}

func (c *Cascade) Detect(img *image.Gray, p classifier.Params) []image.Rectangle {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	mat, err := grayToMat(img)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"cascade": c.path,
			"error":   err.Error(),
		}).Error("Failed to convert frame for cascade")
		return nil
	}
	defer mat.Close()

	cc := <-c.instances
	defer func() { c.instances <- cc }()

	return cc.DetectMultiScaleWithParams(mat, p.ScaleFactor, p.MinNeighbors, 0, p.MinSize, image.Point{})
}

func (c *Cascade) Close() error {
	for _, cc := range c.all {
		cc.Close()
	}
	c.all = nil
	return nil
}

// grayToMat copies the visible part of img into a single-channel Mat.
func grayToMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	pix := img.Pix
	if img.Stride != w || b.Min != (image.Point{}) {
		pix = make([]byte, w*h)
		for y := 0; y < h; y++ {
			from := img.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:(y+1)*w], img.Pix[from:from+w])
		}
	}

	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, pix[:w*h])
}
