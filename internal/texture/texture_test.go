package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

// createTestTGA builds a bottom-up 24-bit uncompressed TGA.
func createTestTGA(width, height int, pixels []color.RGBA) []byte {
	buf := new(bytes.Buffer)
	header := make([]byte, tgaHeaderSize)
	header[2] = tgaTrueColor
	header[12] = byte(width)
	header[13] = byte(width >> 8)
	header[14] = byte(height)
	header[15] = byte(height >> 8)
	header[16] = 24
	buf.Write(header)
	for _, p := range pixels {
		buf.Write([]byte{p.B, p.G, p.R})
	}
	return buf.Bytes()
}

func TestDecodeTGA_Uncompressed(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	// File order is bottom row first.
	data := createTestTGA(2, 2, []color.RGBA{red, red, blue, blue})

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if got := color.RGBAModel.Convert(img.At(0, 0)); got != blue {
		t.Errorf("top-left = %v, want blue", got)
	}
	if got := color.RGBAModel.Convert(img.At(1, 1)); got != red {
		t.Errorf("bottom-right = %v, want red", got)
	}
}

func TestDecodeTGA_RLE(t *testing.T) {
	header := make([]byte, tgaHeaderSize)
	header[2] = tgaTrueColorRLE
	header[12] = 3
	header[14] = 1
	header[16] = 32
	header[17] = 0x20 // top to bottom

	data := append(header,
		0x81, 10, 20, 30, 255, // run of two
		0x00, 1, 2, 3, 128, // one raw pixel
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}
	want := []color.RGBA{
		{R: 30, G: 20, B: 10, A: 255},
		{R: 30, G: 20, B: 10, A: 255},
		{R: 3, G: 2, B: 1, A: 128},
	}
	rgba := img.(*image.RGBA)
	for x, w := range want {
		if got := rgba.RGBAAt(x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	if _, err := DecodeTGA([]byte{1, 2, 3}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("short header: got %v", err)
	}

	mapped := createTestTGA(1, 1, []color.RGBA{{}})
	mapped[1] = 1
	if _, err := DecodeTGA(mapped); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("colour-mapped: got %v", err)
	}

	truncated := createTestTGA(4, 4, []color.RGBA{{}, {}})
	if _, err := DecodeTGA(truncated); !errors.Is(err, ErrTruncatedTGA) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestCodec_Sniffs(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	var pngBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, src); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", pngBuf.Bytes(), "png"},
		{"bmp", bmpBuf.Bytes(), "bmp"},
		{"tga", createTestTGA(1, 1, []color.RGBA{{R: 1, A: 255}}), "tga"},
	}

	codec := NewCodec()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.data); got != tt.format {
				t.Errorf("Format = %q, want %q", got, tt.format)
			}
			if _, err := codec.Decode(tt.data); err != nil {
				t.Errorf("Decode failed: %v", err)
			}
		})
	}
}

func TestCodec_Garbage(t *testing.T) {
	codec := NewCodec()
	for _, data := range [][]byte{nil, []byte("not an image at all, sorry")} {
		if _, err := codec.Decode(data); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Decode(%q) error = %v, want ErrUnsupportedFormat", data, err)
		}
	}
}
