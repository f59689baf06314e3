package vm

// CustomReplacer prefers clean pages so evictions avoid a write-back.
// It never picks the frame it chose last time while any alternative
// exists, and falls back to FIFO when no clean frame qualifies.
type CustomReplacer struct {
	lastVictim int
}

// NewCustomReplacer creates a clean-preferring replacer
func NewCustomReplacer() *CustomReplacer {
	return &CustomReplacer{lastVictim: NoPage}
}

func (c *CustomReplacer) Victim(frames *FrameTable, pages Translator) int {
	for i := 0; i < frames.Size(); i++ {
		page := frames.Occupant(i)
		if page == NoPage || i == c.lastVictim {
			continue
		}
		if _, prot := pages.Lookup(page); prot == ProtRead {
			c.lastVictim = i
			return i
		}
	}

	// The fallback leaves lastVictim alone
	return oldestFrame(frames)
}

func (c *CustomReplacer) Name() string {
	return AlgorithmCustom
}

// LastVictim returns the frame chosen by the last clean-page selection, or NoPage
func (c *CustomReplacer) LastVictim() int {
	return c.lastVictim
}
