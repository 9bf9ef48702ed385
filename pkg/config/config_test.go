package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "name: ${SAMPLE_NAME}\ncount: 3\n")

	var s sample
	require.NoError(t, Load(path, &s))
	assert.Equal(t, sample{Name: "from-env", Count: 3}, s)
}

func TestLoadRunsValidator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "count: -1\n")

	var s sample
	err := Load(path, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must not be negative")
}

func TestLoadWithDefaults(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(dir, "default.yaml")
	writeFile(t, fallback, "name: fallback\n")
	missing := filepath.Join(dir, "missing.yaml")

	var s sample
	path, err := LoadWithDefaults(missing, fallback, &s)
	require.NoError(t, err)
	assert.Equal(t, fallback, path)
	assert.Equal(t, "fallback", s.Name)

	_, err = LoadWithDefaults(missing, "", &s)
	assert.Error(t, err)
	_, err = LoadWithDefaults(missing, missing, &s)
	assert.Error(t, err)
}

func TestLoadWithDefaultsPrefersExistingFile(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "primary.yaml")
	fallback := filepath.Join(dir, "default.yaml")
	writeFile(t, primary, "name: primary\n")
	writeFile(t, fallback, "name: fallback\n")

	var s sample
	path, err := LoadWithDefaults(primary, fallback, &s)
	require.NoError(t, err)
	assert.Equal(t, primary, path)
	assert.Equal(t, "primary", s.Name)
}

func TestLoadWithDefaultsDoesNotMaskInvalidFile(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "primary.yaml")
	fallback := filepath.Join(dir, "default.yaml")
	writeFile(t, primary, "count: -1\n")
	writeFile(t, fallback, "name: fallback\n")

	var s sample
	_, err := LoadWithDefaults(primary, fallback, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), primary)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatchCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "name: a\n")
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 150*time.Millisecond, logger, func() { calls.Add(1) })
	}()

	time.Sleep(100 * time.Millisecond)

	// Unrelated files in the same directory are ignored.
	writeFile(t, filepath.Join(dir, "other.yaml"), "name: x\n")
	for _, v := range []string{"b", "c", "d"} {
		writeFile(t, path, "name: "+v+"\n")
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "watcher did not report the change")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
