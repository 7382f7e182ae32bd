package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types handled by DecodeTGA.
const (
	tgaTrueColor    = 2
	tgaGrey         = 3
	tgaTrueColorRLE = 10
	tgaGreyRLE      = 11
)

const tgaHeaderSize = 18

// ErrTruncatedTGA is returned when pixel data ends before the image is filled.
var ErrTruncatedTGA = errors.New("texture: truncated TGA data")

type tgaHeader struct {
	idLength    int
	colorMapped bool
	imageType   byte
	width       int
	height      int
	bpp         int
	topToBottom bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("%w: short TGA header", ErrUnsupportedFormat)
	}
	h := tgaHeader{
		idLength:    int(data[0]),
		colorMapped: data[1] != 0,
		imageType:   data[2],
		width:       int(data[12]) | int(data[13])<<8,
		height:      int(data[14]) | int(data[15])<<8,
		bpp:         int(data[16]),
		topToBottom: data[17]&0x20 != 0,
	}

	if h.colorMapped {
		return h, fmt.Errorf("%w: colour-mapped TGA", ErrUnsupportedFormat)
	}
	switch h.imageType {
	case tgaTrueColor, tgaTrueColorRLE:
		if h.bpp != 24 && h.bpp != 32 {
			return h, fmt.Errorf("%w: TGA bit depth %d", ErrUnsupportedFormat, h.bpp)
		}
	case tgaGrey, tgaGreyRLE:
		if h.bpp != 8 {
			return h, fmt.Errorf("%w: greyscale TGA bit depth %d", ErrUnsupportedFormat, h.bpp)
		}
	default:
		return h, fmt.Errorf("%w: TGA type %d", ErrUnsupportedFormat, h.imageType)
	}
	if h.width == 0 || h.height == 0 {
		return h, fmt.Errorf("%w: empty TGA", ErrUnsupportedFormat)
	}
	return h, nil
}

// DecodeTGA decodes an uncompressed or RLE TGA image in true colour or
// 8-bit greyscale. Sculpt maps are commonly shipped as TGA.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}
	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, ErrTruncatedTGA
	}

	px := &tgaPixels{
		img:    image.NewRGBA(image.Rect(0, 0, h.width, h.height)),
		header: h,
		stride: h.bpp / 8,
	}
	src := data[offset:]
	if h.imageType == tgaTrueColorRLE || h.imageType == tgaGreyRLE {
		err = px.decodeRLE(src)
	} else {
		err = px.decodeRaw(src)
	}
	if err != nil {
		return nil, err
	}
	return px.img, nil
}

type tgaPixels struct {
	img    *image.RGBA
	header tgaHeader
	stride int
	next   int
}

func (p *tgaPixels) color(b []byte) color.RGBA {
	if p.stride == 1 {
		return color.RGBA{R: b[0], G: b[0], B: b[0], A: 255}
	}
	c := color.RGBA{R: b[2], G: b[1], B: b[0], A: 255}
	if p.stride == 4 {
		c.A = b[3]
	}
	return c
}

// put writes the next pixel in file order. Rows are stored bottom-up unless
// the descriptor says otherwise.
func (p *tgaPixels) put(c color.RGBA) {
	w, h := p.header.width, p.header.height
	x, y := p.next%w, p.next/w
	if !p.header.topToBottom {
		y = h - 1 - y
	}
	p.img.SetRGBA(x, y, c)
	p.next++
}

func (p *tgaPixels) total() int {
	return p.header.width * p.header.height
}

func (p *tgaPixels) decodeRaw(src []byte) error {
	if len(src) < p.total()*p.stride {
		return ErrTruncatedTGA
	}
	for i := 0; i < p.total(); i++ {
		p.put(p.color(src[i*p.stride:]))
	}
	return nil
}

func (p *tgaPixels) decodeRLE(src []byte) error {
	i := 0
	for p.next < p.total() {
		if i >= len(src) {
			return ErrTruncatedTGA
		}
		packet := src[i]
		i++
		count := int(packet&0x7f) + 1

		if packet&0x80 != 0 {
			if i+p.stride > len(src) {
				return ErrTruncatedTGA
			}
			c := p.color(src[i:])
			i += p.stride
			for n := 0; n < count && p.next < p.total(); n++ {
				p.put(c)
			}
			continue
		}

		for n := 0; n < count && p.next < p.total(); n++ {
			if i+p.stride > len(src) {
				return ErrTruncatedTGA
			}
			p.put(p.color(src[i:]))
			i += p.stride
		}
	}
	return nil
}
