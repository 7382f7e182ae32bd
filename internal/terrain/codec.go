package terrain

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Codec errors.
var (
	ErrTruncatedRaw     = errors.New("truncated heightfield data")
	ErrInvalidFileMagic = errors.New("invalid heightfield file magic: expected 'RTHF'")
	ErrUnsupportedFile  = errors.New("unsupported heightfield file version")
)

const (
	fileMagic   = "RTHF"
	fileVersion = 1
)

// WriteRaw writes the samples as little-endian int16 values in row-major order.
func (h *HeightField) WriteRaw(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h.samples)
}

// ReadRaw reads width*height little-endian int16 samples. Samples are read
// a row at a time, so a short stream fails before the full grid is allocated.
func ReadRaw(r io.Reader, width, height int) (*HeightField, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	samples := make([]int16, 0, min(width*height, 1<<20))
	row := make([]int16, width)
	for y := 0; y < height; y++ {
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, ErrTruncatedRaw
			}
			return nil, fmt.Errorf("reading samples: %w", err)
		}
		samples = append(samples, row...)
	}
	return withSamples(width, height, samples), nil
}

// SaveFile writes the heightfield to path as a zstd stream holding a short
// header (magic, version, dimensions) followed by the raw sample array.
func (h *HeightField) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}
	w := bufio.NewWriter(enc)
	if err := writeFileBody(w, h); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func writeFileBody(w io.Writer, h *HeightField) error {
	if _, err := io.WriteString(w, fileMagic); err != nil {
		return err
	}
	header := [3]uint32{fileVersion, uint32(h.width), uint32(h.height)}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	return h.WriteRaw(w)
}

// LoadFile reads a heightfield written by SaveFile. The loaded field has no
// tainted patches.
func LoadFile(path string) (*HeightField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	r := bufio.NewReader(dec)
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, ErrTruncatedRaw
	}
	if string(magic) != fileMagic {
		return nil, ErrInvalidFileMagic
	}
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, ErrTruncatedRaw
	}
	if header[0] != fileVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFile, header[0])
	}
	return ReadRaw(r, int(header[1]), int(header[2]))
}

// Backup drains the tainted patches of h and rewrites path when any patch
// changed since the previous drain. It reports whether a write happened.
func Backup(h *HeightField, path string) (bool, error) {
	patches := h.DrainTainted()
	if len(patches) == 0 {
		return false, nil
	}
	if err := h.SaveFile(path); err != nil {
		// Keep the changes pending for the next backup cycle.
		for _, p := range patches {
			h.tainted[p.Y*h.patchesX+p.X] = true
		}
		return false, fmt.Errorf("saving heightfield to %s: %w", path, err)
	}
	return true, nil
}
