package classifier

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"sync"
	"testing"
)

const (
	background = 255
	skin       = 0
	eye        = 128
)

// blobDetector stands in for a cascade: it reports the bounding boxes of
// 4-connected pixel regions accepted by match that are at least MinSize.
type blobDetector struct {
	match func(v uint8) bool

	mu    sync.Mutex
	calls []call
}

type call struct {
	bounds image.Rectangle
	params Params
}

func (d *blobDetector) Detect(img *image.Gray, p Params) []image.Rectangle {
	d.mu.Lock()
	d.calls = append(d.calls, call{bounds: img.Bounds(), params: p})
	d.mu.Unlock()

	b := img.Bounds()
	seen := make([]bool, b.Dx()*b.Dy())
	var found []image.Rectangle

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := (y-b.Min.Y)*b.Dx() + (x - b.Min.X)
			if seen[idx] || !d.match(img.GrayAt(x, y).Y) {
				continue
			}

			r := image.Rect(x, y, x+1, y+1)
			stack := []image.Point{image.Pt(x, y)}
			seen[idx] = true
			for len(stack) > 0 {
				pt := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				r = r.Union(image.Rect(pt.X, pt.Y, pt.X+1, pt.Y+1))

				for _, n := range []image.Point{image.Pt(pt.X+1, pt.Y), image.Pt(pt.X-1, pt.Y), image.Pt(pt.X, pt.Y+1), image.Pt(pt.X, pt.Y-1)} {
					if !n.In(b) {
						continue
					}
					ni := (n.Y-b.Min.Y)*b.Dx() + (n.X - b.Min.X)
					if seen[ni] || !d.match(img.GrayAt(n.X, n.Y).Y) {
						continue
					}
					seen[ni] = true
					stack = append(stack, n)
				}
			}

			if r.Dx() >= p.MinSize.X && r.Dy() >= p.MinSize.Y {
				found = append(found, r)
			}
		}
	}

	return found
}

func newFaceDetector() *blobDetector {
	return &blobDetector{match: func(v uint8) bool { return v < 200 }}
}

func newEyeDetector() *blobDetector {
	return &blobDetector{match: func(v uint8) bool { return v > 100 && v < 160 }}
}

type face struct {
	rect image.Rectangle
	eyes []image.Rectangle
}

func encodeFrame(t *testing.T, w, h int, faces ...face) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill := func(r image.Rectangle, v uint8) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Set(x, y, color.RGBA{v, v, v, 255})
			}
		}
	}

	fill(img.Bounds(), background)
	for _, f := range faces {
		fill(f.rect, skin)
		for _, e := range f.eyes {
			fill(e.Add(f.rect.Min), eye)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	return buf.Bytes()
}

// faceAt builds a 100x100 face whose center is (cx, cy), with two eyes in
// the upper part unless eyes is false.
func faceAt(cx, cy int, eyes bool) face {
	f := face{rect: image.Rect(cx-50, cy-50, cx+50, cy+50)}
	if eyes {
		f.eyes = []image.Rectangle{
			image.Rect(20, 25, 40, 45),
			image.Rect(60, 25, 80, 45),
		}
	}
	return f
}

func TestClassify_FailsClosedOnBadInput(t *testing.T) {
	c := New(newFaceDetector(), newEyeDetector())

	inputs := map[string][]byte{
		"nil":       nil,
		"empty":     {},
		"text":      []byte("definitely not an image"),
		"noise":     {0x13, 0x37, 0xde, 0xad, 0xbe, 0xef, 0x00, 0xff, 0x10},
		"png magic": {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
		"jpeg soi":  {0xff, 0xd8, 0xff, 0xe0, 0x00},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if got := c.Evaluate(in); got != DecodeError {
				t.Errorf("Evaluate() = %v, want %v", got, DecodeError)
			}
			if c.Classify(in) {
				t.Error("Classify() = true for undecodable input")
			}
		})
	}
}

// pngHeaderOnly builds a valid PNG signature and IHDR declaring w x h 8-bit
// grayscale, followed by an empty IDAT and IEND.
func pngHeaderOnly(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(kind string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(kind))
		crc.Write(data)
		buf.WriteString(kind)
		buf.Write(data)
		binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	chunk("IHDR", ihdr)
	chunk("IDAT", nil)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestClassify_RejectsOversizedDimensionsBeforeDecoding(t *testing.T) {
	c := New(newFaceDetector(), newEyeDetector())
	frame := pngHeaderOnly(20000, 20000)

	if _, err := decodeGray(frame); err != errFrameTooLarge {
		t.Fatalf("decodeGray() error = %v, want %v", err, errFrameTooLarge)
	}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	got := c.Evaluate(frame)

	runtime.ReadMemStats(&after)

	if got != DecodeError {
		t.Errorf("Evaluate() = %v, want %v", got, DecodeError)
	}
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 1<<20 {
		t.Errorf("Evaluate() allocated %d bytes for a header-only frame", allocated)
	}
}

func TestDecodeGray_PixelLimit(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4096, 1))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	gray, err := decodeGray(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeGray() error = %v", err)
	}
	if gray.Bounds().Dx() != 4096 {
		t.Errorf("width = %d, want 4096", gray.Bounds().Dx())
	}

	if _, err := decodeGray(pngHeaderOnly(4097, 4096)); err != errFrameTooLarge {
		t.Errorf("one row over the limit: error = %v, want %v", err, errFrameTooLarge)
	}
}

func TestClassify_Verdicts(t *testing.T) {
	tests := []struct {
		name  string
		frame func(t *testing.T) []byte
		want  Verdict
	}{
		{
			name:  "blank frame has no face",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480) },
			want:  NoFace,
		},
		{
			name:  "face smaller than minimum size",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, face{rect: image.Rect(300, 220, 340, 260)}) },
			want:  NoFace,
		},
		{
			name:  "centered face with eyes",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, faceAt(320, 240, true)) },
			want:  Focused,
		},
		{
			name:  "centered face without eyes",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, faceAt(320, 240, false)) },
			want:  NoEyes,
		},
		{
			name:  "face at left edge",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, faceAt(60, 240, true)) },
			want:  OffCenter,
		},
		{
			name:  "face at right edge",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, faceAt(580, 240, true)) },
			want:  OffCenter,
		},
		{
			name:  "face at top edge",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, faceAt(320, 60, true)) },
			want:  OffCenter,
		},
		{
			name:  "face at bottom edge",
			frame: func(t *testing.T) []byte { return encodeFrame(t, 640, 480, faceAt(320, 420, true)) },
			want:  OffCenter,
		},
		{
			name: "eyes only in lower part of face",
			frame: func(t *testing.T) []byte {
				f := faceAt(320, 240, false)
				f.eyes = []image.Rectangle{image.Rect(30, 70, 50, 90)}
				return encodeFrame(t, 640, 480, f)
			},
			want: NoEyes,
		},
		{
			name: "eye too small for eye detector",
			frame: func(t *testing.T) []byte {
				f := faceAt(320, 240, false)
				f.eyes = []image.Rectangle{image.Rect(30, 20, 40, 30)}
				return encodeFrame(t, 640, 480, f)
			},
			want: NoEyes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(newFaceDetector(), newEyeDetector())
			frame := tt.frame(t)

			if got := c.Evaluate(frame); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
			if got := c.Classify(frame); got != (tt.want == Focused) {
				t.Errorf("Classify() = %v, want %v", got, tt.want == Focused)
			}
		})
	}
}

func TestClassify_CenteringBoundsAreInclusive(t *testing.T) {
	// 1000x1000 frame, face of 100x100: center exactly on each boundary.
	for _, center := range []image.Point{image.Pt(300, 500), image.Pt(700, 500), image.Pt(500, 200), image.Pt(500, 800)} {
		rect := image.Rect(center.X-50, center.Y-50, center.X+50, center.Y+50)
		faces := DetectorFunc(func(*image.Gray, Params) []image.Rectangle {
			return []image.Rectangle{rect}
		})
		eyes := DetectorFunc(func(*image.Gray, Params) []image.Rectangle {
			return []image.Rectangle{image.Rect(0, 0, 15, 15)}
		})

		c := New(faces, eyes)
		if got := c.Evaluate(encodeFrame(t, 1000, 1000)); got != Focused {
			t.Errorf("center %v: Evaluate() = %v, want %v", center, got, Focused)
		}
	}
}

func TestClassify_LargestFaceDecides(t *testing.T) {
	t.Run("larger off-center face beats smaller centered face", func(t *testing.T) {
		big := face{rect: image.Rect(0, 200, 160, 360)}
		small := faceAt(320, 240, true)
		frame := encodeFrame(t, 640, 480, small, big)

		if got := New(newFaceDetector(), newEyeDetector()).Evaluate(frame); got != OffCenter {
			t.Errorf("Evaluate() = %v, want %v", got, OffCenter)
		}
	})

	t.Run("larger centered face beats smaller off-center face", func(t *testing.T) {
		big := face{
			rect: image.Rect(240, 160, 400, 320),
			eyes: []image.Rectangle{image.Rect(30, 30, 60, 60), image.Rect(100, 30, 130, 60)},
		}
		small := face{rect: image.Rect(0, 0, 80, 80)}
		frame := encodeFrame(t, 640, 480, small, big)

		if got := New(newFaceDetector(), newEyeDetector()).Evaluate(frame); got != Focused {
			t.Errorf("Evaluate() = %v, want %v", got, Focused)
		}
	})
}

func TestClassify_DetectorParamsAndEyeRegion(t *testing.T) {
	faces := newFaceDetector()
	eyes := newEyeDetector()
	c := New(faces, eyes)

	f := faceAt(320, 240, true)
	if got := c.Evaluate(encodeFrame(t, 640, 480, f)); got != Focused {
		t.Fatalf("Evaluate() = %v, want %v", got, Focused)
	}

	if len(faces.calls) != 1 {
		t.Fatalf("face detector called %d times, want 1", len(faces.calls))
	}
	if faces.calls[0].params != FaceParams {
		t.Errorf("face params = %+v, want %+v", faces.calls[0].params, FaceParams)
	}
	if faces.calls[0].bounds != image.Rect(0, 0, 640, 480) {
		t.Errorf("face detector saw bounds %v", faces.calls[0].bounds)
	}

	if len(eyes.calls) != 1 {
		t.Fatalf("eye detector called %d times, want 1", len(eyes.calls))
	}
	if eyes.calls[0].params != EyeParams {
		t.Errorf("eye params = %+v, want %+v", eyes.calls[0].params, EyeParams)
	}
	// Top 60% of a 100x100 face, re-anchored at the origin.
	if want := image.Rect(0, 0, 100, 60); eyes.calls[0].bounds != want {
		t.Errorf("eye region = %v, want %v", eyes.calls[0].bounds, want)
	}
}

func TestClassify_SkipsEyeDetectionWhenRejectedEarly(t *testing.T) {
	eyes := newEyeDetector()
	c := New(newFaceDetector(), eyes)

	c.Evaluate(encodeFrame(t, 640, 480))
	c.Evaluate(encodeFrame(t, 640, 480, faceAt(60, 240, true)))
	c.Evaluate([]byte("junk"))

	if len(eyes.calls) != 0 {
		t.Errorf("eye detector called %d times, want 0", len(eyes.calls))
	}
}

func TestClassify_DetectorPanicIsContained(t *testing.T) {
	boom := DetectorFunc(func(*image.Gray, Params) []image.Rectangle {
		panic("cascade exploded")
	})
	c := New(boom, newEyeDetector())

	var got Verdict
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic escaped Evaluate: %v", r)
			}
		}()
		got = c.Evaluate(encodeFrame(t, 64, 64))
	}()

	if got != DetectorFailure {
		t.Errorf("Evaluate() = %v, want %v", got, DetectorFailure)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := New(newFaceDetector(), newEyeDetector())
	frames := [][]byte{
		encodeFrame(t, 640, 480, faceAt(320, 240, true)),
		encodeFrame(t, 640, 480, faceAt(320, 240, false)),
		encodeFrame(t, 640, 480, faceAt(60, 240, true)),
		encodeFrame(t, 640, 480),
	}

	for i, frame := range frames {
		first := c.Evaluate(frame)
		for n := 0; n < 5; n++ {
			if got := c.Evaluate(frame); got != first {
				t.Errorf("frame %d: run %d = %v, first run = %v", i, n, got, first)
			}
		}
	}
}

func TestClassify_ConcurrentUse(t *testing.T) {
	c := New(newFaceDetector(), newEyeDetector())
	focused := encodeFrame(t, 320, 240, faceAt(160, 120, true))
	blank := encodeFrame(t, 320, 240)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				if !c.Classify(focused) {
					errs <- "focused frame classified as not focused"
				}
				return
			}
			if c.Classify(blank) {
				errs <- "blank frame classified as focused"
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}

func TestVerdict_String(t *testing.T) {
	if Focused.String() != "focused" || NoEyes.String() != "no_eyes" {
		t.Errorf("unexpected verdict names: %s, %s", Focused, NoEyes)
	}
	if Verdict(200).String() != "unknown" {
		t.Errorf("Verdict(200).String() = %s", Verdict(200))
	}
}
