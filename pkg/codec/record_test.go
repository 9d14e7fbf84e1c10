package codec

import (
	"bytes"
	"testing"
)

func TestRecordCodec_RoundTrip(t *testing.T) {
	rc := NewRecordCodec()

	testCases := []struct {
		name  string
		key   []byte
		value []byte
	}{
		{
			name:  "task with serialized attributes",
			key:   []byte("task:groceries"),
			value: []byte("priority|i2|title|sbuy milk|done|bfalse|"),
		},
		{
			name:  "tombstone",
			key:   []byte("task:obsolete"),
			value: []byte{},
		},
		{
			name:  "empty key and value",
			key:   []byte{},
			value: []byte{},
		},
		{
			name:  "large value",
			key:   []byte("task:big"),
			value: bytes.Repeat([]byte("notes|slong text|"), 1000),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := rc.Encode(tc.key, tc.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			record, err := rc.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if err := record.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}

			if !bytes.Equal(record.Key, tc.key) {
				t.Errorf("Key mismatch: got %q, want %q", record.Key, tc.key)
			}
			if !bytes.Equal(record.Value, tc.value) {
				t.Errorf("Value mismatch: got %q, want %q", record.Value, tc.value)
			}
			if record.Size() != len(encoded) {
				t.Errorf("Size = %d, want %d", record.Size(), len(encoded))
			}
		})
	}
}

func TestRecordCodec_DecodeShortData(t *testing.T) {
	rc := NewRecordCodec()

	if _, err := rc.Decode([]byte("short")); err == nil {
		t.Error("Decode of truncated header should fail")
	}

	// Header declares more data than is present.
	encoded, err := rc.Encode([]byte("key"), []byte("value"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := rc.Decode(encoded[:len(encoded)-2]); err == nil {
		t.Error("Decode of truncated body should fail")
	}
}

func TestRecord_ValidateDetectsCorruption(t *testing.T) {
	rc := NewRecordCodec()

	encoded, err := rc.Encode([]byte("task:x"), []byte("priority|i1|"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Flip one bit in the value region.
	encoded[len(encoded)-1] ^= 0x01

	record, err := rc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := record.Validate(); err == nil {
		t.Error("Validate should detect a corrupted value")
	}
}
