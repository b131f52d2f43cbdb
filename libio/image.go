package libio

import (
	goimg "image"

	"github.com/chewxy/math32"
)

type image struct {
	Channels      int
	Width, Height int
}

// Calculates the tuple index into the images data.
//
// Note that the origin (0,0) is in the bottom left, as opposed to Go's top left origin
func (img *image) Index(x, y int) int {
	return x*img.Channels + y*img.Channels*img.Width
}

func (img *image) Count() int {
	return img.Width * img.Height
}

type IntImage struct {
	image
	Pix []uint8
}

func NewIntImage(pix []uint8, channels int, width, height int) *IntImage {
	return &IntImage{
		Pix: pix,
		image: image{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

// ToNRGBA converts to a Go image with straight alpha.
func (img *IntImage) ToNRGBA() *goimg.NRGBA {
	rgba := goimg.NewNRGBA(goimg.Rect(0, 0, img.Width, img.Height))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (x + y*img.Width) * img.Channels
			// flipped vertically
			j := (x + (img.Height-y-1)*img.Width) * 4
			for c := 0; c < img.Channels && c < 4; c++ {
				rgba.Pix[j+c] = img.Pix[i+c]
			}
			for c := img.Channels; c < 3; c++ {
				rgba.Pix[j+c] = 0
			}
			if img.Channels < 4 {
				rgba.Pix[j+3] = 0xff
			}
		}
	}

	return rgba
}

type FloatImage struct {
	image
	Pix []float32
}

func NewFloatImage(pix []float32, channels int, width, height int) *FloatImage {
	return &FloatImage{
		Pix: pix,
		image: image{
			Channels: channels,
			Width:    width,
			Height:   height,
		},
	}
}

// Allocates a zeroed image
func NewBlankFloatImage(channels int, width, height int) *FloatImage {
	return NewFloatImage(make([]float32, width*height*channels), channels, width, height)
}

func (img *FloatImage) Bytes() int {
	return img.Width * img.Height * img.Channels * 4
}

func (img *FloatImage) Clone() *FloatImage {
	pix := make([]float32, len(img.Pix))
	copy(pix, img.Pix)
	return NewFloatImage(pix, img.Channels, img.Width, img.Height)
}

// Fill sets the first channels of every pixel to color.
func (img *FloatImage) Fill(color ...float32) {
	for i := 0; i < img.Count(); i++ {
		for c := 0; c < img.Channels && c < len(color); c++ {
			img.Pix[i*img.Channels+c] = color[c]
		}
	}
}

// Returns the pixel at x, y with coordinates clamped to the image edge.
func (img *FloatImage) At(x, y int) []float32 {
	if x < 0 {
		x = 0
	} else if x >= img.Width {
		x = img.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= img.Height {
		y = img.Height - 1
	}
	i := img.Index(x, y)
	return img.Pix[i : i+img.Channels : i+img.Channels]
}

func (img *FloatImage) ToChannels(nr int, defaults ...float32) *FloatImage {
	if img.Channels == nr {
		return img
	}

	if len(defaults) < nr {
		defaults = append(defaults, make([]float32, nr-len(defaults))...)
	}

	dst := make([]float32, img.Count()*nr)
	for i := 0; i < img.Count(); i++ {
		for c := 0; c < nr; c++ {
			if c < img.Channels {
				dst[i*nr+c] = img.Pix[i*img.Channels+c]
			} else {
				dst[i*nr+c] = defaults[c]
			}
		}
	}

	return NewFloatImage(dst, nr, img.Width, img.Height)
}

// Sum adds up every channel of every pixel.
func (img *FloatImage) Sum() float64 {
	var sum float64
	for _, v := range img.Pix {
		sum += float64(v)
	}
	return sum
}

func (img *FloatImage) ToIntImage(gamma, scale float32) *IntImage {
	pix := make([]uint8, len(img.Pix))

	for i := 0; i < len(img.Pix); i++ {
		v := img.Pix[i]
		// the fourth channel is alpha and is stored linearly
		if i%img.Channels < 3 {
			v = tonemap(v, 1.0/gamma, scale)
		} else {
			v = math32.Min(math32.Max(0.0, v), 1.0)
		}
		pix[i] = uint8(v*0xff + 0.5)
	}

	return NewIntImage(pix, img.Channels, img.Width, img.Height)
}

// Reinhard applies x/(1+x) to the color channels in place. Alpha is left as is.
func (img *FloatImage) Reinhard() {
	for i := 0; i < img.Count(); i++ {
		for c := 0; c < img.Channels && c < 3; c++ {
			v := img.Pix[i*img.Channels+c]
			img.Pix[i*img.Channels+c] = v / (1 + v)
		}
	}
}

func tonemap(value, gamma, scale float32) float32 {
	value = math32.Pow(math32.Max(0.0, value), gamma) * scale
	return math32.Min(math32.Max(0.0, value), 1.0)
}
