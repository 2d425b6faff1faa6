package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/vjranagit/graphcalc/pkg/types"
)

// Compressor packs sampled points for the series cache
type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCompressor creates a new compressor. Levels 1-4 map to the zstd
// speed presets from fastest to best compression.
func NewCompressor(level int) (*Compressor, error) {
	encLevel := zstd.SpeedDefault
	switch level {
	case 1:
		encLevel = zstd.SpeedFastest
	case 2:
		encLevel = zstd.SpeedDefault
	case 3:
		encLevel = zstd.SpeedBetterCompression
	case 4:
		encLevel = zstd.SpeedBestCompression
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Compressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// CompressPoints encodes the x column then the y column, each XOR'd
// against its predecessor, and zstd-compresses the result. An undefined
// y is stored as NaN.
func (c *Compressor) CompressPoints(points []types.Point) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(points))); err != nil {
		return nil, err
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = math.NaN()
		if p.Y != nil {
			ys[i] = *p.Y
		}
	}
	if err := writeXOR(buf, xs); err != nil {
		return nil, err
	}
	if err := writeXOR(buf, ys); err != nil {
		return nil, err
	}

	return c.encoder.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len())), nil
}

// DecompressPoints reverses CompressPoints
func (c *Compressor) DecompressPoints(data []byte) ([]types.Point, error) {
	decompressed, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	buf := bytes.NewReader(decompressed)
	var count uint32
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read point count: %w", err)
	}
	if int64(count)*16 != int64(buf.Len()) {
		return nil, fmt.Errorf("corrupt payload: %d points in %d bytes", count, buf.Len())
	}

	xs, err := readXOR(buf, int(count))
	if err != nil {
		return nil, err
	}
	ys, err := readXOR(buf, int(count))
	if err != nil {
		return nil, err
	}

	points := make([]types.Point, count)
	for i := range points {
		points[i].X = xs[i]
		if !math.IsNaN(ys[i]) {
			y := ys[i]
			points[i].Y = &y
		}
	}
	return points, nil
}

func writeXOR(buf *bytes.Buffer, values []float64) error {
	var prevBits uint64
	for _, v := range values {
		bits := math.Float64bits(v)
		if err := binary.Write(buf, binary.LittleEndian, bits^prevBits); err != nil {
			return err
		}
		prevBits = bits
	}
	return nil
}

func readXOR(buf *bytes.Reader, count int) ([]float64, error) {
	values := make([]float64, count)
	var prevBits uint64
	for i := range values {
		var xorBits uint64
		if err := binary.Read(buf, binary.LittleEndian, &xorBits); err != nil {
			return nil, err
		}
		prevBits ^= xorBits
		values[i] = math.Float64frombits(prevBits)
	}
	return values, nil
}

// Close closes the compressor resources
func (c *Compressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}
