// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/app"
	"github.com/vk/stencilgo/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output string
	Err    error
	App    *app.App
}

// HarnessOptions tweak the configuration used by RunProgram. Zero values
// keep the harness defaults.
type HarnessOptions struct {
	Backend      string
	Workers      int
	TileI, TileJ int
	Debug        bool
	Modules      []registry.Module
}

// WriteProgram writes files, keyed by path relative to a fresh temporary
// directory, and returns that directory.
func WriteProgram(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// RunProgram provides a standardized harness for running integration tests
// using a default background context.
func RunProgram(t *testing.T, files map[string]string, opts HarnessOptions) *HarnessResult {
	t.Helper()
	return RunProgramWithContext(context.Background(), t, files, opts)
}

// RunProgramWithContext writes the program files, builds an app over them
// with debug logging, and runs it. Startup errors are returned in the
// result like run errors.
func RunProgramWithContext(ctx context.Context, t *testing.T, files map[string]string, opts HarnessOptions) *HarnessResult {
	t.Helper()

	cfg := app.Config{
		ProgramPaths: []string{WriteProgram(t, files)},
		LogFormat:    "text",
		LogLevel:     "debug",
		Backend:      "block",
		Workers:      4,
		TileI:        4,
		TileJ:        4,
		Debug:        opts.Debug,
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.TileI > 0 {
		cfg.TileI = opts.TileI
	}
	if opts.TileJ > 0 {
		cfg.TileJ = opts.TileJ
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	testApp, err := app.NewApp(out, appConfig, nil, opts.Modules...)
	if err == nil {
		err = testApp.Run(ctx)
	}

	if os.Getenv("STENCILGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
	}
	return &HarnessResult{Output: out.String(), Err: err, App: testApp}
}
