// Package testsupport builds configurations and clips for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"filldrops/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// External binaries point at names that do not exist unless
// WithStubbedBinaries is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.Render.Workers = 2
	cfgVal.Logging.Level = "error"
	cfgVal.FFmpeg.FFmpegBinary = "filldrops-test-missing-ffmpeg"
	cfgVal.FFmpeg.FFprobeBinary = "filldrops-test-missing-ffprobe"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithHistory toggles run recording.
func WithHistory(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = enabled
	}
}

// WithStubbedBinaries writes stub ffmpeg and ffprobe executables that print a
// version line and points the config at them.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range []string{"ffmpeg", "ffprobe"} {
			target := filepath.Join(binDir, name)
			script := []byte("#!/bin/sh\necho \"" + name + " version test\"\nexit 0\n")
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.FFmpeg.FFmpegBinary = filepath.Join(binDir, "ffmpeg")
		b.cfg.FFmpeg.FFprobeBinary = filepath.Join(binDir, "ffprobe")
	}
}

// WriteConfig encodes cfg as TOML into path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
