package vm

import (
	"fmt"
	"log/slog"
	"time"
)

// FaultHandler resolves page faults. It owns the frame table and the
// replacer for one run and is the only code that changes page table entries.
type FaultHandler struct {
	pages    Translator
	frames   *FrameTable
	replacer Replacer
	disk     BlockDevice
	metrics  *Metrics
	logger   *slog.Logger
}

// NewFaultHandler creates a fault handler over the given page table and backing store.
// The store must hold a block for every page. A nil metrics or logger gets a
// private tracker or a discarding logger.
func NewFaultHandler(pages Translator, disk BlockDevice, replacer Replacer, metrics *Metrics, logger *slog.Logger) (*FaultHandler, error) {
	if disk.NumBlocks() < pages.PageCount() {
		return nil, ErrInvalidArgument("NewFaultHandler",
			fmt.Sprintf("backing store holds %d blocks, need %d", disk.NumBlocks(), pages.PageCount()))
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FaultHandler{
		pages:    pages,
		frames:   NewFrameTable(pages.FrameCount()),
		replacer: replacer,
		disk:     disk,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Frames returns the frame table
func (fh *FaultHandler) Frames() *FrameTable {
	return fh.frames
}

// Metrics returns the counters updated by the handler
func (fh *FaultHandler) Metrics() *Metrics {
	return fh.metrics
}

// HandleFault resolves a fault on page: either a write to a clean resident
// page, or any access to a page that is not resident.
func (fh *FaultHandler) HandleFault(page int) error {
	start := time.Now()
	fh.metrics.RecordPageFault()
	defer func() {
		fh.metrics.RecordFaultLatency(time.Since(start))
	}()

	if page < 0 || page >= fh.pages.PageCount() {
		return ErrPageOutOfRange("HandleFault", page, fh.pages.PageCount())
	}

	frame, prot := fh.pages.Lookup(page)
	if prot.IsResident() {
		return fh.upgrade(page, frame)
	}

	target, kind, err := fh.acquireFrame(page)
	if err != nil {
		return err
	}

	victim, err := fh.evict(target, page)
	if err != nil {
		return err
	}

	data, err := fh.pages.Frame(target)
	if err != nil {
		return err
	}
	if err := fh.disk.ReadBlock(page, data); err != nil {
		return err
	}
	fh.metrics.RecordDiskRead()

	fh.pages.Update(page, target, ProtRead)
	fh.frames.RecordLoad(target, page)

	fh.logger.Debug("page fault",
		slog.Int("page", page),
		slog.Int("frame", target),
		slog.String("kind", kind),
		slog.Int("victim", victim),
	)

	return nil
}

// upgrade grants write access to a resident page in place
func (fh *FaultHandler) upgrade(page, frame int) error {
	if frame < 0 || frame >= fh.frames.Size() || fh.frames.Occupant(frame) != page {
		tableFrame, ok := fh.frames.FrameOf(page)
		if !ok {
			tableFrame = NoPage
		}
		return ErrTableMismatch("HandleFault", page, tableFrame, frame)
	}

	fh.pages.Update(page, frame, ProtReadWrite)
	fh.metrics.RecordWriteUpgrade()

	fh.logger.Debug("page fault",
		slog.Int("page", page),
		slog.Int("frame", frame),
		slog.String("kind", "upgrade"),
	)

	return nil
}

// acquireFrame picks the frame that will receive page
func (fh *FaultHandler) acquireFrame(page int) (int, string, error) {
	// With more frames than pages every page keeps its own frame
	if fh.frames.Size() > fh.pages.PageCount() {
		return page, "identity", nil
	}

	if frame, ok := fh.frames.FindFreeFrame(); ok {
		return frame, "free", nil
	}

	victim := fh.replacer.Victim(fh.frames, fh.pages)
	if victim < 0 || victim >= fh.frames.Size() {
		return 0, "", ErrInvalidVictim("HandleFault", victim, "index out of range")
	}
	if fh.frames.Occupant(victim) == NoPage {
		return 0, "", ErrInvalidVictim("HandleFault", victim, "frame is empty")
	}
	return victim, fh.replacer.Name(), nil
}

// evict clears frame so that page can be loaded into it, writing the
// current occupant back first if it is dirty. It returns the evicted page or NoPage.
func (fh *FaultHandler) evict(frame, page int) (int, error) {
	victimPage := fh.frames.Occupant(frame)
	if victimPage == NoPage {
		return NoPage, nil
	}
	if victimPage == page {
		return NoPage, ErrTableMismatch("HandleFault", page, frame, NoPage)
	}

	entryFrame, prot := fh.pages.Lookup(victimPage)
	if !prot.IsResident() || entryFrame != frame {
		return NoPage, ErrTableMismatch("HandleFault", victimPage, frame, entryFrame)
	}

	if prot.IsDirty() {
		data, err := fh.pages.Frame(frame)
		if err != nil {
			return NoPage, err
		}
		if err := fh.disk.WriteBlock(victimPage, data); err != nil {
			return NoPage, err
		}
		fh.metrics.RecordDiskWrite()
	}

	fh.pages.Update(victimPage, 0, ProtNone)
	fh.frames.RecordEvict(frame)
	fh.metrics.RecordEviction()

	return victimPage, nil
}

// CheckConsistency verifies that the frame table and the page table
// describe the same resident set.
func (fh *FaultHandler) CheckConsistency() error {
	if fh.frames.Occupied() > fh.frames.Size() {
		return NewVMError(ErrCodeInternal, "CheckConsistency", "more frames occupied than exist", nil)
	}

	for frame := 0; frame < fh.frames.Size(); frame++ {
		page := fh.frames.Occupant(frame)
		if page == NoPage {
			continue
		}
		entryFrame, prot := fh.pages.Lookup(page)
		if !prot.IsResident() || entryFrame != frame {
			return ErrTableMismatch("CheckConsistency", page, frame, entryFrame)
		}
	}

	for page := 0; page < fh.pages.PageCount(); page++ {
		frame, prot := fh.pages.Lookup(page)
		if !prot.IsResident() {
			continue
		}
		if frame < 0 || frame >= fh.frames.Size() || fh.frames.Occupant(frame) != page {
			tableFrame, ok := fh.frames.FrameOf(page)
			if !ok {
				tableFrame = NoPage
			}
			return ErrTableMismatch("CheckConsistency", page, tableFrame, frame)
		}
	}

	return nil
}
