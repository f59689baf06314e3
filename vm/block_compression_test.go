package vm

import (
	"bytes"
	"math/rand/v2"
	"testing"
)

func patternBlock() []byte {
	data := make([]byte, PageSize)
	for i := range data {
		data[i] = byte(i % 100)
	}
	return data
}

func randomBlock(seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]byte, PageSize)
	for i := range data {
		data[i] = byte(rng.Uint32())
	}
	return data
}

func TestCompressBlockLZ4(t *testing.T) {
	cb, err := CompressBlock(patternBlock(), CompressionLZ4)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}

	if cb.CompressionType != CompressionLZ4 {
		t.Errorf("Expected LZ4 compression, got %s", cb.CompressionType)
	}
	if cb.UncompressedSize != PageSize {
		t.Errorf("Uncompressed size mismatch: got %d, expected %d", cb.UncompressedSize, PageSize)
	}

	t.Logf("LZ4 compression: %d → %d bytes (%.2fx ratio, %d bytes saved)",
		cb.UncompressedSize, cb.CompressedSize, cb.GetCompressionRatio(), cb.GetSpaceSavings())
}

func TestCompressBlockSnappy(t *testing.T) {
	cb, err := CompressBlock(patternBlock(), CompressionSnappy)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}

	if cb.CompressionType != CompressionSnappy {
		t.Errorf("Expected Snappy compression, got %s", cb.CompressionType)
	}
	if cb.GetSpaceSavings() < MinCompressionThreshold {
		t.Errorf("Expected at least %d bytes saved, got %d", MinCompressionThreshold, cb.GetSpaceSavings())
	}
}

func TestIncompressibleBlockStoredRaw(t *testing.T) {
	for _, typ := range []CompressionType{CompressionLZ4, CompressionSnappy} {
		t.Run(typ.String(), func(t *testing.T) {
			cb, err := CompressBlock(randomBlock(11), typ)
			if err != nil {
				t.Fatalf("Compression failed: %v", err)
			}
			if cb.CompressionType != CompressionNone {
				t.Errorf("Expected fallback to none for random data, got %s", cb.CompressionType)
			}
			if cb.CompressedSize != PageSize {
				t.Errorf("Expected raw size %d, got %d", PageSize, cb.CompressedSize)
			}
		})
	}
}

func TestSlotRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"pattern": patternBlock(),
		"random":  randomBlock(3),
		"zeros":   make([]byte, PageSize),
	}

	for _, typ := range []CompressionType{CompressionNone, CompressionLZ4, CompressionSnappy} {
		for name, original := range inputs {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				cb, err := CompressBlock(original, typ)
				if err != nil {
					t.Fatalf("Compression failed: %v", err)
				}

				slot := make([]byte, SlotSize)
				if err := EncodeSlot(cb, slot); err != nil {
					t.Fatalf("EncodeSlot failed: %v", err)
				}

				restored := make([]byte, PageSize)
				written, err := DecodeSlot(slot, restored)
				if err != nil {
					t.Fatalf("DecodeSlot failed: %v", err)
				}
				if !written {
					t.Error("Encoded slot should report written")
				}
				if !bytes.Equal(original, restored) {
					t.Error("Restored block does not match original")
				}
			})
		}
	}
}

func TestDecodeEmptySlot(t *testing.T) {
	slot := make([]byte, SlotSize)
	dst := bytes.Repeat([]byte{0xFF}, PageSize)

	written, err := DecodeSlot(slot, dst)
	if err != nil {
		t.Fatalf("DecodeSlot failed: %v", err)
	}
	if written {
		t.Error("Empty slot should report not written")
	}
	if !bytes.Equal(dst, make([]byte, PageSize)) {
		t.Error("Empty slot should decode to zeros")
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	cb, err := CompressBlock(patternBlock(), CompressionSnappy)
	if err != nil {
		t.Fatalf("Compression failed: %v", err)
	}
	slot := make([]byte, SlotSize)
	if err := EncodeSlot(cb, slot); err != nil {
		t.Fatalf("EncodeSlot failed: %v", err)
	}

	// Flip the stored checksum
	slot[8] ^= 0xFF

	if _, err := DecodeSlot(slot, make([]byte, PageSize)); err == nil {
		t.Error("Expected checksum mismatch")
	}

	slot[0] = 0x12
	if _, err := DecodeSlot(slot, make([]byte, PageSize)); err == nil {
		t.Error("Expected invalid magic error")
	}
}

func TestCompressBlockWrongSize(t *testing.T) {
	if _, err := CompressBlock(make([]byte, 10), CompressionLZ4); err == nil {
		t.Error("Expected error for short block")
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		name      string
		expected  CompressionType
		expectErr bool
	}{
		{"none", CompressionNone, false},
		{"", CompressionNone, false},
		{"lz4", CompressionLZ4, false},
		{"snappy", CompressionSnappy, false},
		{"zstd", CompressionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := ParseCompressionType(tt.name)
			if tt.expectErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if typ != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, typ)
			}
		})
	}
}
