package vm

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
)

// Workload names accepted on the command line
const (
	ProgramSort  = "sort"
	ProgramScan  = "scan"
	ProgramFocus = "focus"
)

// Seeds fixed so every run of a workload issues the same accesses
const (
	sortSeed  = 4856
	focusSeed = 38290
)

// Memory is a byte-addressed virtual region
type Memory interface {
	Load(addr int) byte
	Store(addr int, v byte)
	Len() int
}

// IsKnownProgram reports whether RunProgram accepts name
func IsKnownProgram(name string) bool {
	switch name {
	case ProgramSort, ProgramScan, ProgramFocus:
		return true
	}
	return false
}

// RunProgram runs the named workload over mem and writes its result line to out
func RunProgram(name string, mem Memory, out io.Writer) error {
	var result int64
	switch name {
	case ProgramSort:
		result = SortProgram(mem)
	case ProgramScan:
		result = ScanProgram(mem)
	case ProgramFocus:
		result = FocusProgram(mem)
	default:
		return ErrUnknownProgram("RunProgram", name)
	}

	_, err := fmt.Fprintf(out, "%s result is %d\n", name, result)
	return err
}

// ScanProgram fills the region with i%256 and then reads all of it ten times
func ScanProgram(mem Memory) int64 {
	length := mem.Len()
	for i := 0; i < length; i++ {
		mem.Store(i, byte(i%256))
	}

	var total uint32
	for j := 0; j < 10; j++ {
		for i := 0; i < length; i++ {
			total += uint32(mem.Load(i))
		}
	}
	return int64(total)
}

// SortProgram fills the region with random bytes and sorts them in place
func SortProgram(mem Memory) int64 {
	rng := rand.New(rand.NewPCG(sortSeed, sortSeed))
	length := mem.Len()
	for i := 0; i < length; i++ {
		mem.Store(i, byte(rng.Int32()))
	}

	sort.Sort(byteRegion{mem})

	return signedSum(mem)
}

// FocusProgram performs bursts of random writes, each within a small window
func FocusProgram(mem Memory) int64 {
	const (
		bursts     = 100
		burstSize  = 100
		windowSize = 25
	)

	rng := rand.New(rand.NewPCG(focusSeed, focusSeed))
	length := mem.Len()
	for i := 0; i < length; i++ {
		mem.Store(i, 0)
	}

	for j := 0; j < bursts; j++ {
		start := rng.IntN(length)
		for i := 0; i < burstSize; i++ {
			addr := (start + rng.IntN(windowSize)) % length
			mem.Store(addr, byte(rng.Int32()))
		}
	}

	return signedSum(mem)
}

func signedSum(mem Memory) int64 {
	var total int64
	for i := 0; i < mem.Len(); i++ {
		total += int64(int8(mem.Load(i)))
	}
	return total
}

// byteRegion sorts a Memory as signed bytes
type byteRegion struct {
	mem Memory
}

func (r byteRegion) Len() int {
	return r.mem.Len()
}

func (r byteRegion) Less(i, j int) bool {
	return int8(r.mem.Load(i)) < int8(r.mem.Load(j))
}

func (r byteRegion) Swap(i, j int) {
	a, b := r.mem.Load(i), r.mem.Load(j)
	r.mem.Store(i, b)
	r.mem.Store(j, a)
}
