package vm

import (
	"fmt"
	"io"
	"math"
)

// PageSize is the size of a virtual page, a physical frame and a disk block
const PageSize = 4096

// Largest geometry whose physical memory and backing store sizes fit in an int
const (
	MaxFrames = math.MaxInt / PageSize
	MaxPages  = math.MaxInt / SlotSize
)

// maxFaultsPerAccess bounds faults per access: a write to a non-resident
// page faults once to load it and once to upgrade it.
const maxFaultsPerAccess = 2

// Protection is the access a page table entry grants
type Protection uint8

const (
	ProtNone      Protection = 0
	ProtRead      Protection = 1 << 0
	ProtWrite     Protection = 1 << 1
	ProtReadWrite            = ProtRead | ProtWrite
)

// IsResident reports whether the entry maps a frame
func (p Protection) IsResident() bool {
	return p != ProtNone
}

// IsDirty reports whether the page may have been written since it was loaded
func (p Protection) IsDirty() bool {
	return p&ProtWrite != 0
}

func (p Protection) String() string {
	b := []byte("--")
	if p&ProtRead != 0 {
		b[0] = 'r'
	}
	if p&ProtWrite != 0 {
		b[1] = 'w'
	}
	return string(b)
}

// Translator is the page table as seen by the fault handler.
// Page and frame arguments must be in range; callers check with PageCount and FrameCount.
type Translator interface {
	Lookup(page int) (frame int, prot Protection)
	Update(page, frame int, prot Protection)
	PageCount() int
	FrameCount() int
	Frame(frame int) ([]byte, error)
}

// FaultFunc resolves a fault on page. It runs to completion before the access is retried.
type FaultFunc func(page int) error

type pageEntry struct {
	frame int
	prot  Protection
}

// PageTable maps virtual pages to frames of a private physical memory arena
// and raises a fault whenever an access is not permitted by the entry.
//
// Loads and stores do not return errors. The first failure is kept and
// every later access becomes a no-op; check Err when the workload returns.
type PageTable struct {
	entries []pageEntry
	nframes int
	physmem []byte
	release func() error
	handler FaultFunc
	err     error
}

// NewPageTable creates a page table of npages entries over nframes frames of physical memory
func NewPageTable(npages, nframes int) (*PageTable, error) {
	if npages <= 0 {
		return nil, ErrInvalidArgument("NewPageTable", fmt.Sprintf("npages must be positive, got %d", npages))
	}
	if nframes <= 0 || nframes > MaxFrames {
		return nil, ErrInvalidArgument("NewPageTable", fmt.Sprintf("nframes must be in [1, %d], got %d", MaxFrames, nframes))
	}

	physmem, release, err := allocPhysMem(nframes * PageSize)
	if err != nil {
		return nil, err
	}

	return &PageTable{
		entries: make([]pageEntry, npages),
		nframes: nframes,
		physmem: physmem,
		release: release,
	}, nil
}

// SetFaultHandler installs the function called on every fault
func (pt *PageTable) SetFaultHandler(fn FaultFunc) {
	pt.handler = fn
}

// PageCount returns the number of virtual pages
func (pt *PageTable) PageCount() int {
	return len(pt.entries)
}

// FrameCount returns the number of physical frames
func (pt *PageTable) FrameCount() int {
	return pt.nframes
}

// Len returns the size of the virtual address space in bytes
func (pt *PageTable) Len() int {
	return len(pt.entries) * PageSize
}

// Lookup returns the frame and protection recorded for page
func (pt *PageTable) Lookup(page int) (int, Protection) {
	e := pt.entries[page]
	return e.frame, e.prot
}

// Update records that page maps to frame with the given protection
func (pt *PageTable) Update(page, frame int, prot Protection) {
	pt.entries[page] = pageEntry{frame: frame, prot: prot}
}

// Frame returns the contents of a physical frame
func (pt *PageTable) Frame(frame int) ([]byte, error) {
	if frame < 0 || frame >= pt.nframes {
		return nil, ErrFrameOutOfRange("Frame", frame, pt.nframes)
	}
	start := frame * PageSize
	return pt.physmem[start : start+PageSize : start+PageSize], nil
}

// Load reads the byte at virtual address addr
func (pt *PageTable) Load(addr int) byte {
	offset, ok := pt.translate("Load", addr, false)
	if !ok {
		return 0
	}
	return pt.physmem[offset]
}

// Store writes v at virtual address addr
func (pt *PageTable) Store(addr int, v byte) {
	offset, ok := pt.translate("Store", addr, true)
	if !ok {
		return
	}
	pt.physmem[offset] = v
}

// Err returns the first error raised by an access, if any
func (pt *PageTable) Err() error {
	return pt.err
}

// translate returns the physical offset for addr, faulting as often as needed
func (pt *PageTable) translate(op string, addr int, write bool) (int, bool) {
	if pt.err != nil {
		return 0, false
	}
	if addr < 0 || addr >= pt.Len() {
		pt.err = ErrInvalidArgument(op, fmt.Sprintf("address %d out of range [0, %d)", addr, pt.Len()))
		return 0, false
	}

	page := addr / PageSize
	need := ProtRead
	if write {
		need = ProtWrite
	}

	for attempt := 0; pt.entries[page].prot&need == 0; attempt++ {
		if attempt == maxFaultsPerAccess || pt.handler == nil {
			pt.err = ErrUnresolvedFault(op, page, write)
			return 0, false
		}
		if err := pt.handler(page); err != nil {
			pt.err = err
			return 0, false
		}
	}

	frame := pt.entries[page].frame
	if frame < 0 || frame >= pt.nframes {
		pt.err = ErrFrameOutOfRange(op, frame, pt.nframes)
		return 0, false
	}
	return frame*PageSize + addr%PageSize, true
}

// Print writes one line per page table entry
func (pt *PageTable) Print(w io.Writer) error {
	for page, e := range pt.entries {
		if _, err := fmt.Fprintf(w, "page %06d: frame %06d bits %s\n", page, e.frame, e.prot); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the physical memory arena
func (pt *PageTable) Close() error {
	if pt.release == nil {
		return nil
	}
	err := pt.release()
	pt.release = nil
	pt.physmem = nil
	return err
}
