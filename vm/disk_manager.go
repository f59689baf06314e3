package vm

import (
	"fmt"
	"os"
)

// BlockDevice is the backing store consumed by the fault handler.
// Blocks are PageSize bytes and addressed by page number.
type BlockDevice interface {
	ReadBlock(block int, data []byte) error
	WriteBlock(block int, data []byte) error
	NumBlocks() int
}

// DiskManager stores fixed-size blocks in a file, one slot per virtual page.
// It is not safe for concurrent use.
type DiskManager struct {
	file        *os.File
	nblocks     int
	compression CompressionType
	syncWrites  bool
	slot        []byte // scratch buffer, one slot
	metrics     *Metrics
}

// DiskOptions tunes how blocks are stored
type DiskOptions struct {
	Compression CompressionType
	SyncWrites  bool
}

// NewDiskManager creates (or truncates) fileName and sizes it to hold nblocks blocks
func NewDiskManager(fileName string, nblocks int, opts DiskOptions) (*DiskManager, error) {
	if nblocks <= 0 || nblocks > MaxPages {
		return nil, ErrInvalidArgument("NewDiskManager", fmt.Sprintf("block count must be in [1, %d], got %d", MaxPages, nblocks))
	}

	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create file %s: %w", fileName, err)
	}

	if err := file.Truncate(int64(nblocks) * SlotSize); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size file %s: %w", fileName, err)
	}

	return &DiskManager{
		file:        file,
		nblocks:     nblocks,
		compression: opts.Compression,
		syncWrites:  opts.SyncWrites,
		slot:        make([]byte, SlotSize),
	}, nil
}

// SetMetrics attaches a metrics tracker for compression accounting
func (dm *DiskManager) SetMetrics(metrics *Metrics) {
	dm.metrics = metrics
}

// NumBlocks returns the number of blocks the store holds
func (dm *DiskManager) NumBlocks() int {
	return dm.nblocks
}

// Compression returns the compression applied to written blocks
func (dm *DiskManager) Compression() CompressionType {
	return dm.compression
}

// ReadBlock reads a block into data. A block never written reads as zeros.
func (dm *DiskManager) ReadBlock(block int, data []byte) error {
	if block < 0 || block >= dm.nblocks {
		return ErrBlockOutOfRange("ReadBlock", block, dm.nblocks)
	}
	if len(data) != PageSize {
		return ErrInvalidArgument("ReadBlock", fmt.Sprintf("block data must be exactly %d bytes, got %d", PageSize, len(data)))
	}

	offset := int64(block) * SlotSize
	if _, err := dm.file.ReadAt(dm.slot, offset); err != nil {
		return ErrDiskRead("ReadBlock", block, err)
	}

	if _, err := DecodeSlot(dm.slot, data); err != nil {
		return ErrCorruptBlock("ReadBlock", block, err)
	}

	return nil
}

// WriteBlock writes data as the block at the given index
func (dm *DiskManager) WriteBlock(block int, data []byte) error {
	if block < 0 || block >= dm.nblocks {
		return ErrBlockOutOfRange("WriteBlock", block, dm.nblocks)
	}

	cb, err := CompressBlock(data, dm.compression)
	if err != nil {
		return ErrDiskWrite("WriteBlock", block, err)
	}

	if err := EncodeSlot(cb, dm.slot); err != nil {
		return ErrDiskWrite("WriteBlock", block, err)
	}

	offset := int64(block) * SlotSize
	if _, err := dm.file.WriteAt(dm.slot, offset); err != nil {
		return ErrDiskWrite("WriteBlock", block, err)
	}

	if dm.metrics != nil {
		dm.metrics.RecordBlockStored(int(cb.UncompressedSize), int(cb.CompressedSize))
	}

	if dm.syncWrites {
		if err := dm.file.Sync(); err != nil {
			return ErrDiskWrite("WriteBlock", block, err)
		}
	}

	return nil
}

// Close closes the disk manager and its underlying file
func (dm *DiskManager) Close() error {
	if dm.file != nil {
		err := dm.file.Close()
		dm.file = nil
		return err
	}
	return nil
}
