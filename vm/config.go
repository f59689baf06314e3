package vm

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds simulator configuration
type Config struct {
	// Geometry
	NPages  int `json:"npages"`  // Number of virtual pages
	NFrames int `json:"nframes"` // Number of physical frames

	// Run selection
	Algorithm string `json:"algorithm"` // Replacement policy (rand, fifo, custom)
	Program   string `json:"program"`   // Workload (sort, scan, focus)
	Seed      uint64 `json:"seed"`      // Seed for the rand policy

	// Disk Configuration
	DiskPath    string `json:"disk_path"`   // Backing store file
	Compression string `json:"compression"` // Block compression (none, lz4, snappy)
	SyncWrites  bool   `json:"sync_writes"` // fsync after every block write

	// Output Configuration
	LogLevel       string `json:"log_level"`        // Log level (debug, info, warn, error)
	PrintPageTable bool   `json:"print_page_table"` // Dump page table after the run
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		NPages:         100,
		NFrames:        10,
		Algorithm:      AlgorithmFIFO,
		Program:        ProgramScan,
		Seed:           1,
		DiskPath:       "myvirtualdisk",
		Compression:    "none",
		SyncWrites:     false,
		LogLevel:       "warn",
		PrintPageTable: false,
	}
}

// LoadConfigFromFile loads and validates configuration from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	config, err := DecodeConfigFile(path)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// DecodeConfigFile reads a JSON file over the defaults without validating it,
// for callers that apply further overrides before calling Validate
func DecodeConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables
// Falls back to default values if environment variables are not set
func LoadConfigFromEnv() *Config {
	return ApplyEnv(DefaultConfig())
}

// ApplyEnv overrides fields of config with any VIRTMEM_* variables that are set
func ApplyEnv(config *Config) *Config {
	if val := os.Getenv("VIRTMEM_NPAGES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.NPages = n
		}
	}

	if val := os.Getenv("VIRTMEM_NFRAMES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.NFrames = n
		}
	}

	if val := os.Getenv("VIRTMEM_ALGORITHM"); val != "" {
		config.Algorithm = val
	}

	if val := os.Getenv("VIRTMEM_PROGRAM"); val != "" {
		config.Program = val
	}

	if val := os.Getenv("VIRTMEM_SEED"); val != "" {
		if seed, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.Seed = seed
		}
	}

	// Disk
	if val := os.Getenv("VIRTMEM_DISK_PATH"); val != "" {
		config.DiskPath = val
	}

	if val := os.Getenv("VIRTMEM_COMPRESSION"); val != "" {
		config.Compression = val
	}

	if val := os.Getenv("VIRTMEM_SYNC_WRITES"); val != "" {
		config.SyncWrites = val == "true" || val == "1"
	}

	// Output
	if val := os.Getenv("VIRTMEM_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	if val := os.Getenv("VIRTMEM_PRINT_PAGE_TABLE"); val != "" {
		config.PrintPageTable = val == "true" || val == "1"
	}

	return config
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.NPages <= 0 {
		return ErrInvalidArgument("Validate", fmt.Sprintf("npages must be a positive integer, got %d", c.NPages))
	}
	if c.NPages > MaxPages {
		return ErrInvalidArgument("Validate", fmt.Sprintf("npages must be at most %d, got %d", MaxPages, c.NPages))
	}

	if c.NFrames < MinFrames {
		return ErrInvalidArgument("Validate", fmt.Sprintf("nframes must be at least %d, got %d", MinFrames, c.NFrames))
	}
	if c.NFrames > MaxFrames {
		return ErrInvalidArgument("Validate", fmt.Sprintf("nframes must be at most %d, got %d", MaxFrames, c.NFrames))
	}

	if !IsKnownAlgorithm(c.Algorithm) {
		return ErrUnknownAlgorithm("Validate", c.Algorithm)
	}

	if !IsKnownProgram(c.Program) {
		return ErrUnknownProgram("Validate", c.Program)
	}

	if c.DiskPath == "" {
		return ErrInvalidArgument("Validate", "disk path cannot be empty")
	}

	if _, err := ParseCompressionType(c.Compression); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return ErrInvalidArgument("Validate", fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel))
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
