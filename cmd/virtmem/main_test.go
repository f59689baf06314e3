package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sibexico/virtmem/vm"
)

func setupEnv(t *testing.T) string {
	diskPath := filepath.Join(t.TempDir(), "myvirtualdisk")
	t.Setenv("VIRTMEM_CONFIG", "")
	t.Setenv("VIRTMEM_DISK_PATH", diskPath)
	t.Setenv("VIRTMEM_LOG_LEVEL", "error")
	return diskPath
}

func TestRunRejectsArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code vm.ErrorCode
	}{
		{"zero pages", []string{"0", "4", "fifo", "scan"}, vm.ErrCodeInvalidArgument},
		{"non-numeric pages", []string{"ten", "4", "fifo", "scan"}, vm.ErrCodeInvalidArgument},
		{"one frame", []string{"10", "1", "fifo", "scan"}, vm.ErrCodeInvalidArgument},
		{"unknown algorithm", []string{"10", "4", "lru", "scan"}, vm.ErrCodeUnknownAlgorithm},
		{"unknown program", []string{"10", "4", "fifo", "matmul"}, vm.ErrCodeUnknownProgram},
		{"too few arguments", []string{"10", "4", "fifo"}, vm.ErrCodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diskPath := setupEnv(t)

			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code == 0 {
				t.Fatal("Expected non-zero exit code")
			}
			if !strings.Contains(stderr.String(), "use: virtmem") {
				t.Errorf("Expected usage on stderr, got %q", stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("Expected no stdout output, got %q", stdout.String())
			}

			// Rejected before any resource is created
			if _, err := os.Stat(diskPath); !os.IsNotExist(err) {
				t.Errorf("Disk file should not exist, stat returned %v", err)
			}

			_, err := parseArgs(tt.args)
			if !vm.IsErrorCode(err, tt.code) {
				t.Errorf("Expected code %d, got %v", tt.code, err)
			}
		})
	}
}

func TestRunSequentialScan(t *testing.T) {
	diskPath := setupEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"4", "2", "fifo", "scan"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"scan result is 20889600", "disk reads:", "disk writes:", "page faults:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}

	if _, err := os.Stat(diskPath); err != nil {
		t.Errorf("Expected disk file to exist: %v", err)
	}
}

func TestRunEveryCombination(t *testing.T) {
	for _, algorithm := range []string{"rand", "fifo", "custom"} {
		for _, program := range []string{"sort", "scan", "focus"} {
			t.Run(algorithm+"/"+program, func(t *testing.T) {
				setupEnv(t)

				var stdout, stderr bytes.Buffer
				if code := run([]string{"5", "3", algorithm, program}, &stdout, &stderr); code != 0 {
					t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
				}
				if !strings.Contains(stdout.String(), program+" result is") {
					t.Errorf("Missing program result in %q", stdout.String())
				}
			})
		}
	}
}

func TestRunBadConfigFile(t *testing.T) {
	setupEnv(t)
	t.Setenv("VIRTMEM_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	var stdout, stderr bytes.Buffer
	if code := run([]string{"4", "2", "fifo", "scan"}, &stdout, &stderr); code == 0 {
		t.Error("Expected non-zero exit code for missing config file")
	}
}

func TestRunArgumentsOverrideConfigFile(t *testing.T) {
	setupEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte(`{"npages": 0, "nframes": 1, "algorithm": "lru"}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("VIRTMEM_CONFIG", configPath)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"4", "2", "fifo", "scan"}, &stdout, &stderr); code != 0 {
		t.Fatalf("Expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "scan result is 20889600") {
		t.Errorf("Missing program result in %q", stdout.String())
	}
}

func TestRunChecksArgumentsBeforeConfigFile(t *testing.T) {
	setupEnv(t)
	t.Setenv("VIRTMEM_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	var stdout, stderr bytes.Buffer
	if code := run([]string{"10", "1", "fifo", "scan"}, &stdout, &stderr); code == 0 {
		t.Fatal("Expected non-zero exit code")
	}
	if !strings.Contains(stderr.String(), "use: virtmem") {
		t.Errorf("Expected usage on stderr, got %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "config file") {
		t.Errorf("Config file should not be read for bad arguments, got %q", stderr.String())
	}
}

func TestRunRejectsOversizedFrameCount(t *testing.T) {
	diskPath := setupEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"2", "4503599627370496", "fifo", "scan"}, &stdout, &stderr); code == 0 {
		t.Fatal("Expected non-zero exit code")
	}
	if !strings.Contains(stderr.String(), "nframes must be at most") {
		t.Errorf("Expected frame limit error, got %q", stderr.String())
	}
	if _, err := os.Stat(diskPath); !os.IsNotExist(err) {
		t.Errorf("Disk file should not exist, stat returned %v", err)
	}
}

func TestParseArgsAppliesValues(t *testing.T) {
	cli, err := parseArgs([]string{"12", "5", "custom", "focus"})
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	config := vm.DefaultConfig()
	config.NFrames = 1
	cli.apply(config)

	if config.NPages != 12 || config.NFrames != 5 {
		t.Errorf("Expected 12 pages and 5 frames, got %d and %d", config.NPages, config.NFrames)
	}
	if config.Algorithm != "custom" || config.Program != "focus" {
		t.Errorf("Expected custom/focus, got %s/%s", config.Algorithm, config.Program)
	}
}
