package storage

import (
	"math"
	"testing"

	"github.com/vjranagit/graphcalc/pkg/types"
)

func TestCompressPointsRoundTrip(t *testing.T) {
	comp, err := NewCompressor(2)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	points := make([]types.Point, 201)
	for i := range points {
		x := -10 + float64(i)*0.1
		points[i].X = x
		if x > 0 {
			y := math.Log(x)
			points[i].Y = &y
		}
	}

	compressed, err := comp.CompressPoints(points)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}

	decompressed, err := comp.DecompressPoints(compressed)
	if err != nil {
		t.Fatalf("Decompression failed: %v", err)
	}
	if len(decompressed) != len(points) {
		t.Fatalf("Length mismatch: expected %d, got %d", len(points), len(decompressed))
	}

	for i := range points {
		if points[i].X != decompressed[i].X {
			t.Errorf("X mismatch at %d: expected %v, got %v", i, points[i].X, decompressed[i].X)
		}
		if (points[i].Y == nil) != (decompressed[i].Y == nil) {
			t.Fatalf("Definedness mismatch at x=%v", points[i].X)
		}
		if points[i].Y != nil && *points[i].Y != *decompressed[i].Y {
			t.Errorf("Y mismatch at %d: expected %v, got %v", i, *points[i].Y, *decompressed[i].Y)
		}
	}
}

func TestCompressRegularSeries(t *testing.T) {
	comp, err := NewCompressor(3)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	// integer sweep of a horizontal line
	points := make([]types.Point, 1000)
	for i := range points {
		y := 3.0
		points[i] = types.Point{X: float64(i), Y: &y}
	}

	compressed, err := comp.CompressPoints(points)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}
	originalSize := len(points) * 16
	if len(compressed) >= originalSize/2 {
		t.Errorf("Compression ineffective: original=%d, compressed=%d", originalSize, len(compressed))
	}
}

func TestCompressEmptyPoints(t *testing.T) {
	comp, err := NewCompressor(4)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	compressed, err := comp.CompressPoints(nil)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}
	points, err := comp.DecompressPoints(compressed)
	if err != nil {
		t.Fatalf("Decompression failed: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Expected no points, got %d", len(points))
	}
}

func TestDecompressCorrupt(t *testing.T) {
	comp, err := NewCompressor(2)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer comp.Close()

	if _, err := comp.DecompressPoints([]byte("not zstd")); err == nil {
		t.Error("Expected error for garbage input")
	}

	// valid zstd frame, truncated payload
	truncated := comp.encoder.EncodeAll([]byte{5, 0, 0, 0, 1, 2, 3}, nil)
	if _, err := comp.DecompressPoints(truncated); err == nil {
		t.Error("Expected error for truncated payload")
	}
}
