package vm

// Replacement algorithm names accepted on the command line
const (
	AlgorithmRandom = "rand"
	AlgorithmFIFO   = "fifo"
	AlgorithmCustom = "custom"
)

// MinFrames is the smallest frame count a run accepts
const MinFrames = 2

// Replacer selects the frame to evict when the frame table is full.
// Allows different algorithms (random, FIFO, clean-preferring).
type Replacer interface {
	// Victim returns an occupied frame index.
	// It is only called when FindFreeFrame reports no free frame.
	Victim(frames *FrameTable, pages Translator) int

	// Name returns the algorithm name the replacer was built from
	Name() string
}

// IsKnownAlgorithm reports whether NewReplacer accepts name
func IsKnownAlgorithm(name string) bool {
	switch name {
	case AlgorithmRandom, AlgorithmFIFO, AlgorithmCustom:
		return true
	}
	return false
}

// NewReplacer creates a replacer based on the specified algorithm.
// seed only affects the random replacer.
func NewReplacer(algorithm string, seed uint64) (Replacer, error) {
	switch algorithm {
	case AlgorithmRandom:
		return NewRandomReplacer(seed), nil
	case AlgorithmFIFO:
		return NewFIFOReplacer(), nil
	case AlgorithmCustom:
		return NewCustomReplacer(), nil
	}
	return nil, ErrUnknownAlgorithm("NewReplacer", algorithm)
}
