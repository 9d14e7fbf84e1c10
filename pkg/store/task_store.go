package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/taskvault/taskvault/pkg/codec"
	"github.com/taskvault/taskvault/pkg/logger"
)

// TaskStore persists task attribute blobs in a single append-only log.
// Each task key maps to its latest record; the value is the serialized
// attribute string produced by the attribute codec, stored as an opaque
// blob. A record with an empty value is a tombstone.
type TaskStore struct {
	config   TaskStoreConfig
	attrs    *codec.AttrCodec
	log      logger.Logger
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	dataFile string
	mutex    sync.Mutex
	isOpen   bool
}

// NewTaskStore creates a task store rooted at config.DataDir.
func NewTaskStore(config TaskStoreConfig) (*TaskStore, error) {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, err
	}

	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &TaskStore{
		config:   config,
		attrs:    codec.NewAttrCodec(log),
		log:      log,
		index:    NewHashIndex(),
		dataFile: filepath.Join(config.DataDir, "tasks.log"),
	}, nil
}

// Open validates the log, truncating any corrupted tail, then rebuilds
// the in-memory index. Safe to call on an already open store.
func (ts *TaskStore) Open() (*RecoveryResult, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if ts.isOpen {
		return &RecoveryResult{}, nil
	}

	recovery, err := ts.validateLog()
	if err != nil {
		return nil, err
	}
	if recovery.RecordsTruncated > 0 {
		ts.log.Error("store: truncated corrupted log tail,", recovery.FileSizeBefore-recovery.FileSizeAfter, "bytes dropped")
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      ts.dataFile,
		FsyncInterval: ts.config.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: ts.dataFile})
	if err != nil {
		writer.Close()
		return nil, err
	}

	if err := ts.index.BuildFromLog(reader); err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}

	ts.writer = writer
	ts.reader = reader
	ts.isOpen = true
	return recovery, nil
}

// Get returns the serialized attribute blob for a task key.
func (ts *TaskStore) Get(key string) ([]byte, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	return ts.getLocked(key)
}

func (ts *TaskStore) getLocked(key string) ([]byte, error) {
	if !ts.isOpen {
		return nil, ErrNotOpen
	}

	entry, exists := ts.index.Get(key)
	if !exists {
		return nil, ErrTaskNotFound
	}

	record, err := ts.reader.ReadAt(entry.Offset)
	if err != nil {
		return nil, err
	}
	if len(record.Value) == 0 {
		return nil, ErrTaskNotFound
	}
	return record.Value, nil
}

// Put stores a serialized attribute blob under a task key.
func (ts *TaskStore) Put(key string, value []byte) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	return ts.putLocked(key, value)
}

func (ts *TaskStore) putLocked(key string, value []byte) error {
	if !ts.isOpen {
		return ErrNotOpen
	}
	if key == "" {
		return ErrInvalidKey
	}

	keyBytes := []byte(key)
	offset, err := ts.writer.Put(keyBytes, value)
	if err != nil {
		return err
	}

	ts.index.Put(key, &IndexEntry{
		Offset:    offset,
		Size:      uint32(codec.RecordHeaderSize + len(keyBytes) + len(value)),
		Timestamp: uint64(time.Now().UnixNano()),
	})
	return nil
}

// Delete writes a tombstone for a task key.
func (ts *TaskStore) Delete(key string) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if !ts.isOpen {
		return ErrNotOpen
	}
	if key == "" {
		return ErrInvalidKey
	}
	if _, exists := ts.index.Get(key); !exists {
		return ErrTaskNotFound
	}

	if _, err := ts.writer.Put([]byte(key), []byte{}); err != nil {
		return err
	}
	ts.index.Delete(key)
	return nil
}

// PutAttributes encodes attrs with the attribute codec and stores the
// result. Fails if any attribute value has an unsupported type.
func (ts *TaskStore) PutAttributes(key string, attrs *codec.AttributeMap) error {
	serialized, err := ts.attrs.Encode(attrs)
	if err != nil {
		return err
	}
	return ts.Put(key, []byte(serialized))
}

// GetAttributes loads and decodes the attribute map for a task key. The
// decode is lenient: malformed entries in the persisted blob are
// recovered or dropped, never returned as errors.
func (ts *TaskStore) GetAttributes(key string) (*codec.AttributeMap, error) {
	blob, err := ts.Get(key)
	if err != nil {
		return nil, err
	}
	return ts.attrs.Decode(string(blob)), nil
}

// ListKeys returns all live task keys starting with prefix, sorted.
func (ts *TaskStore) ListKeys(prefix string) ([]string, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if !ts.isOpen {
		return nil, ErrNotOpen
	}
	return ts.index.KeysWithPrefix(prefix), nil
}

// ScanPrefix returns the serialized blobs of all tasks whose key starts
// with prefix, in key order.
func (ts *TaskStore) ScanPrefix(prefix string) ([]TaskEntry, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if !ts.isOpen {
		return nil, ErrNotOpen
	}

	var entries []TaskEntry
	for _, key := range ts.index.KeysWithPrefix(prefix) {
		blob, err := ts.getLocked(key)
		if err != nil {
			continue // deleted or corrupted since the index was read
		}
		entries = append(entries, TaskEntry{Key: key, Serialized: string(blob)})
	}
	return entries, nil
}

// Stats returns store statistics.
func (ts *TaskStore) Stats() *StoreStats {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if !ts.isOpen {
		return &StoreStats{}
	}
	return &StoreStats{
		Tasks:    ts.index.Size(),
		DataSize: ts.writer.Size(),
	}
}

// Close flushes and shuts down the store.
func (ts *TaskStore) Close() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if !ts.isOpen {
		return nil
	}
	ts.isOpen = false

	if ts.writer != nil {
		if err := ts.writer.Close(); err != nil {
			ts.reader.Close()
			return err
		}
	}
	if ts.reader != nil {
		return ts.reader.Close()
	}
	return nil
}

// validateLog walks the log from the start and truncates it at the first
// record that fails to read or validate.
func (ts *TaskStore) validateLog() (*RecoveryResult, error) {
	start := time.Now()

	info, err := os.Stat(ts.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{RecoveryTime: time.Since(start)}, nil
		}
		return nil, err
	}
	sizeBefore := info.Size()

	reader, err := NewLogReader(LogReaderConfig{FilePath: ts.dataFile})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var validated int64
	lastValidOffset := int64(0)
	corrupted := false

	for {
		record, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			corrupted = true
			break
		}
		validated++
		lastValidOffset += int64(record.Size())
	}

	result := &RecoveryResult{
		RecordsValidated: validated,
		FileSizeBefore:   sizeBefore,
		FileSizeAfter:    sizeBefore,
	}

	if corrupted {
		if err := os.Truncate(ts.dataFile, lastValidOffset); err != nil {
			return nil, err
		}
		result.RecordsTruncated = 1
		result.FileSizeAfter = lastValidOffset
	}

	result.RecoveryTime = time.Since(start)
	return result, nil
}
