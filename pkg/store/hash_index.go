package store

import (
	"io"
	"sort"
	"strings"
	"sync"
)

// HashIndex maps task keys to their latest record location for O(1)
// lookups. Rebuilt from the log on open.
type HashIndex struct {
	entries map[string]*IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates an empty index.
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[string]*IndexEntry),
	}
}

// Put adds or updates the entry for a key.
func (idx *HashIndex) Put(key string, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries[key] = entry
}

// Get retrieves the entry for a key.
func (idx *HashIndex) Get(key string) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	entry, exists := idx.entries[key]
	return entry, exists
}

// Delete removes a key from the index.
func (idx *HashIndex) Delete(key string) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	delete(idx.entries, key)
}

// Size returns the number of indexed keys.
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}

// Clear removes all entries.
func (idx *HashIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[string]*IndexEntry)
}

// KeysWithPrefix returns the keys starting with prefix, sorted.
func (idx *HashIndex) KeysWithPrefix(prefix string) []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var keys []string
	for key := range idx.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// BuildFromLog replays the log through reader, applying puts and
// tombstones in order so the index reflects the latest state.
func (idx *HashIndex) BuildFromLog(reader *LogReader) error {
	idx.Clear()
	for {
		offset := reader.Offset()
		record, err := reader.ReadNext()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		key := string(record.Key)
		if record.ValueSize == 0 {
			idx.Delete(key)
			continue
		}
		idx.Put(key, &IndexEntry{
			Offset:    offset,
			Size:      uint32(record.Size()),
			Timestamp: record.Timestamp,
		})
	}
}
