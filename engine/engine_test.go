package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/delta/engine/assets"
)

func writeProject(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content", "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content", "models", "tri.obj"),
		[]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "delta.toml"), []byte(config), 0o644))
	return dir
}

func TestEditorLifecycle(t *testing.T) {
	dir := writeProject(t, "[project]\nasset_dir = \"content\"\n[watch]\nenabled = false\n")

	var scanned int
	var ticks atomic.Int32
	hooks := &Hooks{
		FnInitialize: func(db *assets.AssetDatabase, report *assets.Report) error {
			scanned = len(report.Imported)
			return nil
		},
		FnTick: func(stats assets.TickStats) { ticks.Add(1) },
	}
	ed, err := New(&ApplicationConfig{ProjectDir: dir, TickInterval: 5 * time.Millisecond}, hooks, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, EditorStageBootComplete, ed.Stage())
	assert.Equal(t, "content", ed.Config().Project.AssetDir)

	require.NoError(t, ed.Initialize())
	assert.Equal(t, 1, scanned)
	assert.True(t, ed.Database().Exists("models/tri.obj"))
	assert.Nil(t, ed.Database().Listener())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ed.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, ed.Shutdown())
	assert.Equal(t, EditorStageStopped, ed.Stage())
	require.NoError(t, ed.Shutdown())
}

func TestEditorRejectsOutOfOrderCalls(t *testing.T) {
	dir := writeProject(t, "[project]\nasset_dir = \"content\"\n")
	off := false
	ed, err := New(&ApplicationConfig{ProjectDir: dir, Watch: &off}, nil, io.Discard)
	require.NoError(t, err)
	assert.Error(t, ed.Run(context.Background()))
	require.NoError(t, ed.Initialize())
	assert.Error(t, ed.Initialize())
	require.NoError(t, ed.Shutdown())
}

func TestEditorBadConfig(t *testing.T) {
	dir := writeProject(t, "[project\n")
	_, err := New(&ApplicationConfig{ProjectDir: dir}, nil, io.Discard)
	assert.Error(t, err)
}

func TestEditorMissingAssetDir(t *testing.T) {
	dir := writeProject(t, "[project]\nasset_dir = \"nowhere\"\n")
	ed, err := New(&ApplicationConfig{ProjectDir: dir}, nil, io.Discard)
	require.NoError(t, err)
	assert.Error(t, ed.Initialize())
}
