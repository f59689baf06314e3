package vm

// NoPage marks a frame that holds no page
const NoPage = -1

type frameEntry struct {
	page int    // occupant, or NoPage
	age  uint64 // loads since this frame was filled; meaningless when empty
}

// FrameTable tracks which page occupies each physical frame and how long it has been there
type FrameTable struct {
	frames   []frameEntry
	occupied int
}

// NewFrameTable creates a frame table with nframes empty frames
func NewFrameTable(nframes int) *FrameTable {
	frames := make([]frameEntry, nframes)
	for i := range frames {
		frames[i].page = NoPage
	}
	return &FrameTable{frames: frames}
}

// Size returns the number of frames
func (ft *FrameTable) Size() int {
	return len(ft.frames)
}

// Occupied returns the number of frames holding a page
func (ft *FrameTable) Occupied() int {
	return ft.occupied
}

// FindFreeFrame returns the lowest-index empty frame
func (ft *FrameTable) FindFreeFrame() (int, bool) {
	if ft.occupied == len(ft.frames) {
		return 0, false
	}
	for i, f := range ft.frames {
		if f.page == NoPage {
			return i, true
		}
	}
	return 0, false
}

// Occupant returns the page held by frame, or NoPage
func (ft *FrameTable) Occupant(frame int) int {
	return ft.frames[frame].page
}

// Age returns the age counter of frame
func (ft *FrameTable) Age(frame int) uint64 {
	return ft.frames[frame].age
}

// RecordLoad places page in frame with age 1 and ages every other occupied frame by one
func (ft *FrameTable) RecordLoad(frame, page int) {
	for i := range ft.frames {
		if i != frame && ft.frames[i].page != NoPage {
			ft.frames[i].age++
		}
	}

	if ft.frames[frame].page == NoPage {
		ft.occupied++
	}
	ft.frames[frame] = frameEntry{page: page, age: 1}
}

// RecordEvict empties frame
func (ft *FrameTable) RecordEvict(frame int) {
	if ft.frames[frame].page != NoPage {
		ft.occupied--
	}
	ft.frames[frame] = frameEntry{page: NoPage}
}

// FrameOf returns the frame holding page
func (ft *FrameTable) FrameOf(page int) (int, bool) {
	for i, f := range ft.frames {
		if f.page == page {
			return i, true
		}
	}
	return 0, false
}
