package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstego/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	root := t.TempDir()
	m, err := NewManager(filepath.Join(root, "uploads"), filepath.Join(root, "processed"))
	require.NoError(t, err)
	return m
}

func TestStagePreservesExtension(t *testing.T) {
	m := newTestManager(t)

	job, err := m.Stage(models.JobKindEncode, "holiday.mov", strings.NewReader("video bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobKindEncode, job.Kind)
	assert.Equal(t, filepath.Join(m.UploadDir(), job.ID+".mov"), job.InputPath)
	assert.Equal(t, filepath.Join(m.ProcessedDir(), "encoded_"+job.ID+".mp4"), job.OutputPath)
	assert.Equal(t, "holiday.mov", job.OriginalName)

	data, err := os.ReadFile(job.InputPath)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
}

func TestStageDefaultsExtension(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{"clip", "", "weird."} {
		job, err := m.Stage(models.JobKindDecode, name, strings.NewReader("x"))
		require.NoError(t, err, name)
		assert.Equal(t, ".mp4", filepath.Ext(job.InputPath), name)
		assert.Equal(t, "decoded_"+job.ID+".mp4", filepath.Base(job.OutputPath))
	}
}

func TestStageIgnoresDirectoriesInFilename(t *testing.T) {
	m := newTestManager(t)
	job, err := m.Stage(models.JobKindEncode, "../../etc/passwd.webm", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, m.UploadDir(), filepath.Dir(job.InputPath))
	assert.Equal(t, ".webm", filepath.Ext(job.InputPath))
}

func TestStageIDsAreUnique(t *testing.T) {
	m := newTestManager(t)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job, err := m.Stage(models.JobKindEncode, "a.mp4", strings.NewReader(""))
		require.NoError(t, err)
		assert.False(t, seen[job.ID], "duplicate id %s", job.ID)
		seen[job.ID] = true
	}
}

func TestFinalizeRemovesInput(t *testing.T) {
	m := newTestManager(t)
	job, err := m.Stage(models.JobKindEncode, "a.mp4", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, m.Finalize(job))
	_, err = os.Stat(job.InputPath)
	assert.True(t, os.IsNotExist(err))

	// second call is harmless
	assert.NoError(t, m.Finalize(job))
}

func TestDiscardRemovesOutput(t *testing.T) {
	m := newTestManager(t)
	job, err := m.Stage(models.JobKindDecode, "a.mp4", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(job.OutputPath, []byte("partial"), 0644))

	require.NoError(t, m.Discard(job))
	_, err = os.Stat(job.OutputPath)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, m.Discard(job))
}

func TestOutputPathRejectsTraversal(t *testing.T) {
	m := newTestManager(t)

	p, err := m.OutputPath("decoded_abc.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.ProcessedDir(), "decoded_abc.mp4"), p)

	for _, bad := range []string{"", "../secret", "a/b.mp4", ".hidden", ".."} {
		_, err := m.OutputPath(bad)
		assert.True(t, errors.Is(err, ErrInvalidName), bad)
	}
}

func TestRemove(t *testing.T) {
	m := newTestManager(t)
	path := filepath.Join(m.ProcessedDir(), "encoded_x.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, m.Remove("encoded_x.mp4"))
	assert.True(t, os.IsNotExist(m.Remove("encoded_x.mp4")))
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	m := newTestManager(t)
	oldPath := filepath.Join(m.ProcessedDir(), "encoded_old.mp4")
	newPath := filepath.Join(m.ProcessedDir(), "encoded_new.mp4")
	require.NoError(t, os.WriteFile(oldPath, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(newPath, []byte("new"), 0644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	removed, err := m.Sweep(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newPath)
	assert.NoError(t, err)
}
