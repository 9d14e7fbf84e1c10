package store

import (
	"time"

	"github.com/taskvault/taskvault/pkg/logger"
)

// IndexEntry locates a task record inside the log file.
type IndexEntry struct {
	Offset    int64  // Byte offset of the record
	Size      uint32 // Encoded record size in bytes
	Timestamp uint64 // Record timestamp
}

// LogWriterConfig holds configuration for the log writer.
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader.
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// TaskStoreConfig holds configuration for the task store.
type TaskStoreConfig struct {
	DataDir       string        // Directory for data files
	FsyncInterval time.Duration // Fsync interval for durability
	Logger        logger.Logger // Recovery and diagnostics output, may be nil
}

// RecoveryResult reports what Open found while validating the log.
type RecoveryResult struct {
	RecordsValidated int64
	RecordsTruncated int64
	FileSizeBefore   int64
	FileSizeAfter    int64
	RecoveryTime     time.Duration
}

// StoreStats holds statistics about the store.
type StoreStats struct {
	Tasks    int
	DataSize int64
}

// TaskEntry is a task key together with its decoded attributes, used by
// prefix scans.
type TaskEntry struct {
	Key        string
	Serialized string
}

// Errors
var (
	ErrTaskNotFound = &StoreError{"task not found"}
	ErrInvalidKey   = &StoreError{"invalid task key"}
	ErrCorruption   = &StoreError{"data corruption detected"}
	ErrNotOpen      = &StoreError{"store is not open"}
)

// StoreError represents a task store error.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
