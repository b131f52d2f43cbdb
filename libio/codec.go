package libio

import (
	"fmt"
	goimg "image"
	"image/png"
	"io"

	// registered decoders
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chewxy/math32"
)

// DecodeImage reads any registered image format into a 4 channel float image in
// linear light. The color channels are treated as sRGB encoded, alpha is linear.
func DecodeImage(r io.Reader) (*FloatImage, string, error) {
	src, format, err := goimg.Decode(r)
	if err != nil {
		return nil, format, fmt.Errorf("could not decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	img := NewBlankFloatImage(4, w, h)

	var lut [256]float32
	for i := range lut {
		lut[i] = SrgbToLinear(float32(i) / 0xff)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// flipped vertically
			i := img.Index(x, h-y-1)
			img.Pix[i+0] = unpremultiply(r, a, &lut)
			img.Pix[i+1] = unpremultiply(g, a, &lut)
			img.Pix[i+2] = unpremultiply(b, a, &lut)
			img.Pix[i+3] = float32(a) / 0xffff
		}
	}

	return img, format, nil
}

func unpremultiply(c, a uint32, lut *[256]float32) float32 {
	if a == 0 {
		return 0
	}
	v := c * 0xffff / a
	return lut[v>>8]
}

// EncodePng tonemaps img and writes it as an 8-bit png.
func EncodePng(w io.Writer, img *FloatImage, gamma, scale float32) error {
	return png.Encode(w, img.ToIntImage(gamma, scale).ToNRGBA())
}

func SrgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

func LinearToSrgb(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 1.0/2.4) - 0.055
}
