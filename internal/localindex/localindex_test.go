package localindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestIndex_BuildAndQuery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "benefits.md", "Employees receive fifteen vacation days per year. Vacation requests need manager approval.")
	writeFile(t, dir, "office.txt", "The office opens at nine. Parking is free for staff.")
	writeFile(t, dir, "notes.pdf", "ignored")

	idx := New(Config{Paths: []string{filepath.Join(dir, "*")}, SentencesPerChunk: 1}, nil)
	require.NoError(t, idx.Build())

	ctx := context.Background()
	vec, err := idx.Embed(ctx, "how many vacation days")
	require.NoError(t, err)

	matches, err := idx.Query(ctx, vec, 2)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	text, ok := matches[0].Text()
	require.True(t, ok)
	assert.Contains(t, text, "vacation days")
	assert.Greater(t, matches[0].Score, 0.0)
}

func TestIndex_NotBuilt(t *testing.T) {
	idx := New(Config{}, nil)
	_, err := idx.Embed(context.Background(), "q")
	assert.Error(t, err)
	_, err = idx.Query(context.Background(), []float32{1}, 5)
	assert.Error(t, err)
}

func TestIndex_BuildWithoutFiles(t *testing.T) {
	idx := New(Config{Paths: []string{filepath.Join(t.TempDir(), "*.md")}}, nil)
	assert.Error(t, idx.Build())
}

func TestIndex_Watches(t *testing.T) {
	dir := t.TempDir()
	idx := New(Config{Paths: []string{filepath.Join(dir, "*.md"), filepath.Join(dir, "policy.txt")}}, nil)

	assert.True(t, idx.watches(filepath.Join(dir, "handbook.md")))
	assert.True(t, idx.watches(filepath.Join(dir, "policy.txt")))
	assert.False(t, idx.watches(filepath.Join(dir, "other.txt")))
	assert.False(t, idx.watches(filepath.Join(dir, "handbook.md.swp")))
}

func TestIndex_WatchRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "handbook.md", "Lunch is served at noon.")
	idx := New(Config{Paths: []string{p}}, nil)
	require.NoError(t, idx.Build())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- idx.Watch(ctx, 20*time.Millisecond) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "handbook.md", "Lunch is served at noon. Remote work requires approval from your manager.")

	require.Eventually(t, func() bool {
		vec, err := idx.Embed(context.Background(), "remote work approval")
		if err != nil {
			return false
		}
		matches, err := idx.Query(context.Background(), vec, 1)
		if err != nil || len(matches) == 0 {
			return false
		}
		return matches[0].Score > 0
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
