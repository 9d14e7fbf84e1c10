package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogWriter(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tasks.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	assert.FileExists(t, filePath)
	assert.Equal(t, int64(0), writer.Size())
	assert.Equal(t, filePath, writer.Path())

	assert.NoError(t, writer.Close())
}

func TestLogWriter_PutReturnsOffsets(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tasks.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	defer writer.Close()

	off1, err := writer.Put([]byte("task:a"), []byte("priority|i1|"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), off1)

	off2, err := writer.Put([]byte("task:b"), []byte("priority|i2|"))
	require.NoError(t, err)
	assert.Greater(t, off2, off1)
	assert.Equal(t, writer.Size(), off2+int64(20+len("task:b")+len("priority|i2|")))
}

func TestLogWriter_AppendsAcrossReopen(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tasks.log")

	writer, err := NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	_, err = writer.Put([]byte("task:a"), []byte("priority|i1|"))
	require.NoError(t, err)
	firstSize := writer.Size()
	require.NoError(t, writer.Close())

	writer, err = NewLogWriter(LogWriterConfig{FilePath: filePath})
	require.NoError(t, err)
	defer writer.Close()

	assert.Equal(t, firstSize, writer.Size())

	off, err := writer.Put([]byte("task:b"), []byte("priority|i2|"))
	require.NoError(t, err)
	assert.Equal(t, firstSize, off)
}

func TestLogWriter_FsyncInterval(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tasks.log")

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      filePath,
		FsyncInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer writer.Close()

	// Writes are flushed per record even when fsync is deferred, so a
	// reader sees the record immediately.
	_, err = writer.Put([]byte("task:a"), []byte("priority|i1|"))
	require.NoError(t, err)

	reader, err := NewLogReader(LogReaderConfig{FilePath: filePath})
	require.NoError(t, err)
	defer reader.Close()

	record, err := reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "task:a", string(record.Key))
}
