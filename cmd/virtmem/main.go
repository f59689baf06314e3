package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sibexico/virtmem/vm"
)

const usage = "use: virtmem <npages> <nframes> <rand|fifo|custom> <sort|scan|focus>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n%s\n", err, usage)
		return 1
	}

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	cli.apply(config)
	if err := config.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n%s\n", err, usage)
		return 1
	}

	logger := vm.NewLogger(config.LogLevel, stderr)

	sim, err := vm.NewSimulation(config, logger)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	report, runErr := sim.Run(stdout)
	if err := sim.Close(); err != nil {
		logger.Warn("failed to release resources", "error", err)
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "%v\n", runErr)
		return 1
	}

	if _, err := report.WriteTo(stdout); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

// loadConfig starts from defaults, then the VIRTMEM_CONFIG file if set, then VIRTMEM_* variables.
// The result is validated only after the command line is applied.
func loadConfig() (*vm.Config, error) {
	config := vm.DefaultConfig()
	if path := os.Getenv("VIRTMEM_CONFIG"); path != "" {
		var err error
		config, err = vm.DecodeConfigFile(path)
		if err != nil {
			return nil, err
		}
	}
	return vm.ApplyEnv(config), nil
}

// cliArgs holds the positional arguments, which override every other source
type cliArgs struct {
	npages    int
	nframes   int
	algorithm string
	program   string
}

// parseArgs checks the four positional arguments
func parseArgs(args []string) (cliArgs, error) {
	if len(args) != 4 {
		return cliArgs{}, vm.ErrInvalidArgument("parseArgs", fmt.Sprintf("expected 4 arguments, got %d", len(args)))
	}

	npages, err := strconv.Atoi(args[0])
	if err != nil || npages <= 0 {
		return cliArgs{}, vm.ErrInvalidArgument("parseArgs", fmt.Sprintf("npages must be a positive integer: %q", args[0]))
	}

	nframes, err := strconv.Atoi(args[1])
	if err != nil || nframes < vm.MinFrames {
		return cliArgs{}, vm.ErrInvalidArgument("parseArgs", fmt.Sprintf("nframes must be an integer >= %d: %q", vm.MinFrames, args[1]))
	}

	if !vm.IsKnownAlgorithm(args[2]) {
		return cliArgs{}, vm.ErrUnknownAlgorithm("parseArgs", args[2])
	}

	if !vm.IsKnownProgram(args[3]) {
		return cliArgs{}, vm.ErrUnknownProgram("parseArgs", args[3])
	}

	return cliArgs{
		npages:    npages,
		nframes:   nframes,
		algorithm: args[2],
		program:   args[3],
	}, nil
}

func (c cliArgs) apply(config *vm.Config) {
	config.NPages = c.npages
	config.NFrames = c.nframes
	config.Algorithm = c.algorithm
	config.Program = c.program
}
