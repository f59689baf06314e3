package vm

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionType represents the compression algorithm used for disk blocks
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionLZ4    CompressionType = 1
	CompressionSnappy CompressionType = 2
)

// String returns the configuration name of the compression type
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	}
	return fmt.Sprintf("compression(%d)", uint8(ct))
}

// ParseCompressionType maps a configuration name to a CompressionType
func ParseCompressionType(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	}
	return CompressionNone, ErrInvalidArgument("ParseCompressionType", fmt.Sprintf("unknown compression: %s (must be none, lz4, or snappy)", name))
}

// CompressedBlock is one block after compression, with the metadata needed to restore it
type CompressedBlock struct {
	CompressionType  CompressionType
	UncompressedSize uint16
	CompressedSize   uint16
	CompressedData   []byte
	OriginalChecksum uint32
}

// Block slot layout:
// [0-1]: Magic number (0xB10C)
// [2]: Compression type (0=none, 1=LZ4, 2=Snappy)
// [3]: Reserved
// [4-5]: Uncompressed size
// [6-7]: Compressed size
// [8-11]: CRC32 (IEEE) of the uncompressed block
// [12+]: Payload
//
// A slot whose magic is zero has never been written and reads back as zeros.

const (
	BlockMagic              = 0xB10C
	BlockHeaderSize         = 12
	SlotSize                = PageSize + BlockHeaderSize
	MinCompressionThreshold = 100 // Minimum bytes saved to keep the compressed form
)

// CompressBlock compresses a block using the specified algorithm.
// The result falls back to CompressionNone when compression saves too little.
func CompressBlock(data []byte, compressionType CompressionType) (*CompressedBlock, error) {
	if len(data) != PageSize {
		return nil, fmt.Errorf("block data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	checksum := crc32.ChecksumIEEE(data)

	var compressed []byte

	switch compressionType {
	case CompressionNone:
		compressed = data

	case CompressionLZ4:
		compressed = make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("LZ4 compression failed: %w", err)
		}
		// n == 0 means the block is incompressible
		if n == 0 {
			compressed = data
			compressionType = CompressionNone
		} else {
			compressed = compressed[:n]
		}

	case CompressionSnappy:
		compressed = snappy.Encode(nil, data)

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", compressionType)
	}

	if compressionType != CompressionNone && len(data)-len(compressed) < MinCompressionThreshold {
		compressionType = CompressionNone
		compressed = data
	}

	return &CompressedBlock{
		CompressionType:  compressionType,
		UncompressedSize: uint16(len(data)),
		CompressedSize:   uint16(len(compressed)),
		CompressedData:   compressed,
		OriginalChecksum: checksum,
	}, nil
}

// DecompressBlock restores the original block and verifies its checksum
func DecompressBlock(cb *CompressedBlock) ([]byte, error) {
	var decompressed []byte

	switch cb.CompressionType {
	case CompressionNone:
		decompressed = cb.CompressedData

	case CompressionLZ4:
		decompressed = make([]byte, cb.UncompressedSize)
		n, err := lz4.UncompressBlock(cb.CompressedData, decompressed)
		if err != nil {
			return nil, fmt.Errorf("LZ4 decompression failed: %w", err)
		}
		if n != int(cb.UncompressedSize) {
			return nil, fmt.Errorf("LZ4 decompression size mismatch: got %d, expected %d", n, cb.UncompressedSize)
		}

	case CompressionSnappy:
		var err error
		decompressed, err = snappy.Decode(nil, cb.CompressedData)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		if len(decompressed) != int(cb.UncompressedSize) {
			return nil, fmt.Errorf("snappy decompression size mismatch: got %d, expected %d", len(decompressed), cb.UncompressedSize)
		}

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", cb.CompressionType)
	}

	if checksum := crc32.ChecksumIEEE(decompressed); checksum != cb.OriginalChecksum {
		return nil, fmt.Errorf("checksum mismatch: got %08x, expected %08x", checksum, cb.OriginalChecksum)
	}

	return decompressed, nil
}

// EncodeSlot serializes a compressed block into a SlotSize buffer
func EncodeSlot(cb *CompressedBlock, slot []byte) error {
	if len(slot) != SlotSize {
		return fmt.Errorf("slot must be exactly %d bytes, got %d", SlotSize, len(slot))
	}
	if BlockHeaderSize+len(cb.CompressedData) > SlotSize {
		return fmt.Errorf("compressed block too large: %d bytes (max %d)", len(cb.CompressedData), PageSize)
	}

	binary.LittleEndian.PutUint16(slot[0:2], BlockMagic)
	slot[2] = uint8(cb.CompressionType)
	slot[3] = 0
	binary.LittleEndian.PutUint16(slot[4:6], cb.UncompressedSize)
	binary.LittleEndian.PutUint16(slot[6:8], cb.CompressedSize)
	binary.LittleEndian.PutUint32(slot[8:12], cb.OriginalChecksum)

	n := copy(slot[BlockHeaderSize:], cb.CompressedData)
	clear(slot[BlockHeaderSize+n:])

	return nil
}

// DecodeSlot restores the block stored in a slot into dst.
// It reports false if the slot has never been written.
func DecodeSlot(slot []byte, dst []byte) (bool, error) {
	if len(slot) < BlockHeaderSize {
		return false, fmt.Errorf("slot too short for block header: %d bytes", len(slot))
	}
	if len(dst) != PageSize {
		return false, fmt.Errorf("destination must be exactly %d bytes, got %d", PageSize, len(dst))
	}

	magic := binary.LittleEndian.Uint16(slot[0:2])
	if magic == 0 {
		clear(dst)
		return false, nil
	}
	if magic != BlockMagic {
		return false, fmt.Errorf("invalid magic number: got %04x, expected %04x", magic, BlockMagic)
	}

	compressedSize := binary.LittleEndian.Uint16(slot[6:8])
	if BlockHeaderSize+int(compressedSize) > len(slot) {
		return false, fmt.Errorf("insufficient data for block: need %d bytes, have %d",
			BlockHeaderSize+int(compressedSize), len(slot))
	}

	cb := &CompressedBlock{
		CompressionType:  CompressionType(slot[2]),
		UncompressedSize: binary.LittleEndian.Uint16(slot[4:6]),
		CompressedSize:   compressedSize,
		CompressedData:   slot[BlockHeaderSize : BlockHeaderSize+int(compressedSize)],
		OriginalChecksum: binary.LittleEndian.Uint32(slot[8:12]),
	}

	data, err := DecompressBlock(cb)
	if err != nil {
		return false, err
	}
	if len(data) != PageSize {
		return false, fmt.Errorf("decoded block has %d bytes, expected %d", len(data), PageSize)
	}

	copy(dst, data)
	return true, nil
}

// GetCompressionRatio returns the compression ratio (original size / compressed size)
func (cb *CompressedBlock) GetCompressionRatio() float64 {
	if cb.CompressedSize == 0 {
		return 1.0
	}
	return float64(cb.UncompressedSize) / float64(cb.CompressedSize)
}

// GetSpaceSavings returns bytes saved by compression
func (cb *CompressedBlock) GetSpaceSavings() int {
	return int(cb.UncompressedSize) - int(cb.CompressedSize)
}
