package cascade

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"FocusSentry/pkg/classifier"
)

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.xml"), 2)
	if !errors.Is(err, ErrCascadeNotLoaded) {
		t.Fatalf("err = %v, want %v", err, ErrCascadeNotLoaded)
	}
}

func TestNew_InvalidDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	if err := os.WriteFile(path, []byte("<opencv_storage></opencv_storage>"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path, 1); !errors.Is(err, ErrCascadeNotLoaded) {
		t.Fatalf("err = %v, want %v", err, ErrCascadeNotLoaded)
	}
}

// Runs against a real cascade when FOCUS_FACE_CASCADE points at one.
func TestCascade_DetectBlankFrame(t *testing.T) {
	path := os.Getenv("FOCUS_FACE_CASCADE")
	if path == "" {
		t.Skip("FOCUS_FACE_CASCADE not set")
	}

	c, err := New(path, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	img := image.NewGray(image.Rect(0, 0, 320, 240))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	if faces := c.Detect(img, classifier.FaceParams); len(faces) != 0 {
		t.Errorf("Detect found %d faces in a blank frame", len(faces))
	}
}

func TestGrayToMat_CompactsSubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(2, 3, 6, 5)).(*image.Gray)

	mat, err := grayToMat(sub)
	if err != nil {
		t.Fatalf("grayToMat failed: %v", err)
	}
	defer mat.Close()

	if mat.Rows() != 2 || mat.Cols() != 4 {
		t.Fatalf("mat size = %dx%d, want 4x2", mat.Cols(), mat.Rows())
	}
	if got, want := mat.GetUCharAt(0, 0), uint8(3*8+2); got != want {
		t.Errorf("mat(0,0) = %d, want %d", got, want)
	}
	if got, want := mat.GetUCharAt(1, 3), uint8(4*8+5); got != want {
		t.Errorf("mat(1,3) = %d, want %d", got, want)
	}
}
