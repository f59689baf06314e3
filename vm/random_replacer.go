package vm

import "math/rand/v2"

// RandomReplacer evicts a uniformly random frame
type RandomReplacer struct {
	rng *rand.Rand
}

// NewRandomReplacer creates a random replacer whose choices are fixed by seed
func NewRandomReplacer(seed uint64) *RandomReplacer {
	return &RandomReplacer{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Victim picks any frame; every frame is occupied when it is called
func (r *RandomReplacer) Victim(frames *FrameTable, _ Translator) int {
	return r.rng.IntN(frames.Size())
}

func (r *RandomReplacer) Name() string {
	return AlgorithmRandom
}
