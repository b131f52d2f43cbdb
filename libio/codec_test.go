package libio_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"bloompyramid/libio"
)

func TestDecodeImagePng(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	src.SetNRGBA(1, 0, color.NRGBA{G: 0xff, A: 0xff})
	src.SetNRGBA(0, 1, color.NRGBA{B: 0xff, A: 0xff})
	src.SetNRGBA(1, 1, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0})

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, src); err != nil {
		t.Fatal(err)
	}

	img, format, err := libio.DecodeImage(buf)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Channels != 4 || img.Width != 2 || img.Height != 2 {
		t.Fatalf("got %dx%dx%d image", img.Width, img.Height, img.Channels)
	}

	// the top row of the png ends up at y = 1
	tests := []struct {
		x, y int
		want [4]float32
	}{
		{0, 1, [4]float32{1, 0, 0, 1}},
		{1, 1, [4]float32{0, 1, 0, 1}},
		{0, 0, [4]float32{0, 0, 1, 1}},
		{1, 0, [4]float32{0, 0, 0, 0}},
	}
	for _, test := range tests {
		px := img.At(test.x, test.y)
		for c := 0; c < 4; c++ {
			d := px[c] - test.want[c]
			if d > 1e-5 || d < -1e-5 {
				t.Errorf("pixel %d,%d = %v, want %v", test.x, test.y, px, test.want)
				break
			}
		}
	}
}

func TestDecodeImageSrgb(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1, 1))
	src.SetGray(0, 0, color.Gray{Y: 0x80})

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, src); err != nil {
		t.Fatal(err)
	}
	img, _, err := libio.DecodeImage(buf)
	if err != nil {
		t.Fatal(err)
	}

	want := libio.SrgbToLinear(128.0 / 255)
	if d := img.Pix[0] - want; d > 1e-5 || d < -1e-5 {
		t.Errorf("got %v, want %v", img.Pix[0], want)
	}
}

func TestDecodeImageInvalid(t *testing.T) {
	_, _, err := libio.DecodeImage(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Errorf("expected an error")
	}
}

func TestEncodePng(t *testing.T) {
	img := libio.NewBlankFloatImage(3, 4, 2)
	copy(img.At(0, 0), []float32{1, 0.5, 4})

	buf := new(bytes.Buffer)
	if err := libio.EncodePng(buf, img, 1, 1); err != nil {
		t.Fatal(err)
	}

	decoded, err := png.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 2 {
		t.Fatalf("png is %v", decoded.Bounds())
	}
	// bottom left origin, so pixel 0,0 is the last png row
	r, g, b, a := decoded.At(0, 1).RGBA()
	if r>>8 != 0xff || g>>8 != 0x80 || b>>8 != 0xff || a>>8 != 0xff {
		t.Errorf("got %x %x %x %x", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestEncodePngTranslucent(t *testing.T) {
	img := libio.NewBlankFloatImage(4, 1, 1)
	copy(img.At(0, 0), []float32{0.25, 1, 0, 0.5})

	buf := new(bytes.Buffer)
	// a scale of 2 must not touch alpha
	if err := libio.EncodePng(buf, img, 1, 2); err != nil {
		t.Fatal(err)
	}

	decoded, err := png.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := color.NRGBAModel.Convert(decoded.At(0, 0)).(color.NRGBA)
	want := color.NRGBA{R: 0x80, G: 0xff, B: 0, A: 0x80}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSrgbRoundTrip(t *testing.T) {
	for _, v := range []float32{0, 0.001, 0.2, 0.5, 1} {
		got := libio.SrgbToLinear(libio.LinearToSrgb(v))
		if d := got - v; d > 1e-5 || d < -1e-5 {
			t.Errorf("SrgbToLinear(LinearToSrgb(%v)) = %v", v, got)
		}
	}
}
