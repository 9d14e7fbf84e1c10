// Package index maintains a secondary index of tasks by attribute value,
// backed by pebble so it survives restarts.
//
// Two key families are kept:
//
//	attr <nul> name <nul> value <nul> taskKey   forward lookup entries
//	task <nul> taskKey <nul> name <nul> value   reverse entries for re-indexing
//
// Values are stored in the attribute codec's tagged textual form, so an
// index lookup matches exactly what the encoder would have written.
package index

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/taskvault/taskvault/pkg/codec"
)

const keySep = 0x00

// TaskIndex answers "which tasks have attribute name = value".
type TaskIndex struct {
	db    *pebble.DB
	mutex sync.Mutex
}

// Open opens (creating if necessary) the index database at path.
func Open(path string) (*TaskIndex, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open task index: %w", err)
	}
	return &TaskIndex{db: db}, nil
}

// IndexTask replaces all index entries for taskKey with entries derived
// from attrs. Attribute values with unsupported types are skipped; the
// codec would have rejected them at encode time anyway.
func (ix *TaskIndex) IndexTask(taskKey string, attrs *codec.AttributeMap) error {
	ix.mutex.Lock()
	defer ix.mutex.Unlock()

	batch := ix.db.NewBatch()
	defer batch.Close()

	if err := ix.removeLocked(batch, taskKey); err != nil {
		return err
	}

	for _, name := range attrs.Keys() {
		value, _ := attrs.Get(name)
		text, err := codec.FormatValue(value)
		if err != nil {
			continue
		}
		if err := batch.Set(forwardKey(name, text, taskKey), nil, nil); err != nil {
			return err
		}
		if err := batch.Set(reverseKey(taskKey, name, text), nil, nil); err != nil {
			return err
		}
	}

	return batch.Commit(pebble.Sync)
}

// RemoveTask drops all index entries for taskKey.
func (ix *TaskIndex) RemoveTask(taskKey string) error {
	ix.mutex.Lock()
	defer ix.mutex.Unlock()

	batch := ix.db.NewBatch()
	defer batch.Close()

	if err := ix.removeLocked(batch, taskKey); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// removeLocked appends deletions for every existing entry of taskKey to
// batch, using the reverse entries to find the forward ones.
func (ix *TaskIndex) removeLocked(batch *pebble.Batch, taskKey string) error {
	prefix := compose("task", taskKey)
	iter, err := ix.db.NewIter(prefixBounds(prefix))
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rev := append([]byte(nil), iter.Key()...)
		parts := bytes.SplitN(rev[len(prefix):], []byte{keySep}, 2)
		if len(parts) != 2 {
			continue
		}
		name, text := string(parts[0]), string(parts[1])
		if err := batch.Delete(forwardKey(name, text, taskKey), nil); err != nil {
			return err
		}
		if err := batch.Delete(rev, nil); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Lookup returns the keys of all tasks whose attribute name equals
// value, in key order.
func (ix *TaskIndex) Lookup(name string, value any) ([]string, error) {
	text, err := codec.FormatValue(value)
	if err != nil {
		return nil, err
	}

	prefix := compose("attr", name, text)
	iter, err := ix.db.NewIter(prefixBounds(prefix))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()[len(prefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close closes the underlying database.
func (ix *TaskIndex) Close() error {
	return ix.db.Close()
}

func forwardKey(name, valueText, taskKey string) []byte {
	return append(compose("attr", name, valueText), taskKey...)
}

func reverseKey(taskKey, name, valueText string) []byte {
	key := compose("task", taskKey, name)
	return append(key, valueText...)
}

// compose joins parts with the key separator, leaving a trailing
// separator so the result is a complete prefix.
func compose(parts ...string) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
		b = append(b, keySep)
	}
	return b
}

// prefixBounds returns iterator options covering exactly the keys that
// start with prefix.
func prefixBounds(prefix []byte) *pebble.IterOptions {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			upper = upper[:i+1]
			return &pebble.IterOptions{LowerBound: prefix, UpperBound: upper}
		}
	}
	return &pebble.IterOptions{LowerBound: prefix}
}
