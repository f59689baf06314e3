package vm

// FIFOReplacer evicts the frame that was loaded longest ago
type FIFOReplacer struct{}

// NewFIFOReplacer creates a FIFO replacer. All of its state lives in the frame table's age counters.
func NewFIFOReplacer() *FIFOReplacer {
	return &FIFOReplacer{}
}

func (f *FIFOReplacer) Victim(frames *FrameTable, _ Translator) int {
	return oldestFrame(frames)
}

func (f *FIFOReplacer) Name() string {
	return AlgorithmFIFO
}

// oldestFrame returns the occupied frame with the greatest age,
// the lowest index among equals, or NoPage if every frame is empty.
func oldestFrame(frames *FrameTable) int {
	victim := NoPage
	var maxAge uint64
	for i := 0; i < frames.Size(); i++ {
		if frames.Occupant(i) == NoPage {
			continue
		}
		if age := frames.Age(i); victim == NoPage || age > maxAge {
			victim = i
			maxAge = age
		}
	}
	return victim
}
