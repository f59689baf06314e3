package vm

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Report holds the statistics printed at the end of a run
type Report struct {
	DiskReads  uint64
	DiskWrites uint64
	PageFaults uint64
}

// WriteTo prints the report in the form the command line tool uses
func (r Report) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "disk reads: %d\ndisk writes: %d\npage faults: %d\n",
		r.DiskReads, r.DiskWrites, r.PageFaults)
	return int64(n), err
}

// Simulation is the context of one run: backing store, page table,
// fault handler and counters, built from a Config.
type Simulation struct {
	config  *Config
	disk    *DiskManager
	pages   *PageTable
	handler *FaultHandler
	metrics *Metrics
	logger  *slog.Logger
}

// NewSimulation validates config and allocates every resource of the run
func NewSimulation(config *Config, logger *slog.Logger) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	replacer, err := NewReplacer(config.Algorithm, config.Seed)
	if err != nil {
		return nil, err
	}

	compression, err := ParseCompressionType(config.Compression)
	if err != nil {
		return nil, err
	}

	disk, err := NewDiskManager(config.DiskPath, config.NPages, DiskOptions{
		Compression: compression,
		SyncWrites:  config.SyncWrites,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't create virtual disk: %w", err)
	}

	pages, err := NewPageTable(config.NPages, config.NFrames)
	if err != nil {
		disk.Close()
		return nil, fmt.Errorf("couldn't create page table: %w", err)
	}

	metrics := NewMetrics()
	disk.SetMetrics(metrics)

	handler, err := NewFaultHandler(pages, disk, replacer, metrics, logger)
	if err != nil {
		pages.Close()
		disk.Close()
		return nil, err
	}
	pages.SetFaultHandler(handler.HandleFault)

	logger.Info("simulation ready",
		slog.Int("npages", config.NPages),
		slog.Int("nframes", config.NFrames),
		slog.String("algorithm", config.Algorithm),
		slog.String("program", config.Program),
		slog.String("compression", disk.Compression().String()),
	)

	return &Simulation{
		config:  config.Clone(),
		disk:    disk,
		pages:   pages,
		handler: handler,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// PageTable returns the run's page table
func (s *Simulation) PageTable() *PageTable {
	return s.pages
}

// FaultHandler returns the run's fault handler
func (s *Simulation) FaultHandler() *FaultHandler {
	return s.handler
}

// Run executes the configured workload, writing its output to out
func (s *Simulation) Run(out io.Writer) (Report, error) {
	if err := RunProgram(s.config.Program, s.pages, out); err != nil {
		return s.Report(), err
	}
	if err := s.pages.Err(); err != nil {
		return s.Report(), fmt.Errorf("%s program failed: %w", s.config.Program, err)
	}
	if err := s.handler.CheckConsistency(); err != nil {
		return s.Report(), err
	}

	if s.config.PrintPageTable {
		if err := s.pages.Print(out); err != nil {
			return s.Report(), err
		}
	}

	s.metrics.LogMetrics(s.logger)
	return s.Report(), nil
}

// Report returns the current statistics
func (s *Simulation) Report() Report {
	return Report{
		DiskReads:  s.metrics.GetDiskReads(),
		DiskWrites: s.metrics.GetDiskWrites(),
		PageFaults: s.metrics.GetPageFaults(),
	}
}

// Close releases the page table and the backing store
func (s *Simulation) Close() error {
	return errors.Join(s.pages.Close(), s.disk.Close())
}
