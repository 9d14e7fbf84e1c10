package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
)

// RecordHeaderSize is the fixed length of a record header:
// CRC32(4) + KeySize(4) + ValueSize(4) + Timestamp(8).
const RecordHeaderSize = 20

// Record is one entry in the append-only task log. The value is an
// opaque blob; for task records it holds a serialized attribute string,
// and an empty value marks a tombstone.
type Record struct {
	Checksum  uint32
	KeySize   uint32
	ValueSize uint32
	Timestamp uint64
	Key       []byte
	Value     []byte
}

// NewRecord creates a record stamped with the current time.
func NewRecord(key, value []byte) *Record {
	return &Record{
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Timestamp: uint64(time.Now().UnixNano()),
		Key:       key,
		Value:     value,
	}
}

// Size returns the encoded length of the record.
func (r *Record) Size() int {
	return RecordHeaderSize + len(r.Key) + len(r.Value)
}

// Validate recomputes the checksum and compares it to the stored one.
func (r *Record) Validate() error {
	if sum := r.computeChecksum(); sum != r.Checksum {
		return fmt.Errorf("record checksum mismatch: stored %d, computed %d", r.Checksum, sum)
	}
	return nil
}

// computeChecksum covers every field after the checksum itself.
func (r *Record) computeChecksum() uint32 {
	var hdr [RecordHeaderSize - 4]byte
	binary.LittleEndian.PutUint32(hdr[0:], r.KeySize)
	binary.LittleEndian.PutUint32(hdr[4:], r.ValueSize)
	binary.LittleEndian.PutUint64(hdr[8:], r.Timestamp)
	sum := crc32.Update(0, crc32.IEEETable, hdr[:])
	sum = crc32.Update(sum, crc32.IEEETable, r.Key)
	return crc32.Update(sum, crc32.IEEETable, r.Value)
}

// RecordCodec marshals records to and from the on-disk layout:
//
//	[CRC32(4)][KeySize(4)][ValueSize(4)][Timestamp(8)][Key][Value]
//
// All integers are little-endian. Instances are stateless and safe for
// concurrent use.
type RecordCodec struct{}

// NewRecordCodec creates a record codec.
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode frames a key-value pair into a checksummed log record.
func (c *RecordCodec) Encode(key, value []byte) ([]byte, error) {
	r := NewRecord(key, value)
	r.Checksum = r.computeChecksum()

	buf := make([]byte, r.Size())
	binary.LittleEndian.PutUint32(buf[0:], r.Checksum)
	binary.LittleEndian.PutUint32(buf[4:], r.KeySize)
	binary.LittleEndian.PutUint32(buf[8:], r.ValueSize)
	binary.LittleEndian.PutUint64(buf[12:], r.Timestamp)
	copy(buf[RecordHeaderSize:], r.Key)
	copy(buf[RecordHeaderSize+len(r.Key):], r.Value)
	return buf, nil
}

// Decode unmarshals a record from data. The key and value slices alias
// data; callers that retain them past the lifetime of data must copy.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < RecordHeaderSize {
		return nil, fmt.Errorf("record too short: %d bytes", len(data))
	}

	r := &Record{
		Checksum:  binary.LittleEndian.Uint32(data[0:4]),
		KeySize:   binary.LittleEndian.Uint32(data[4:8]),
		ValueSize: binary.LittleEndian.Uint32(data[8:12]),
		Timestamp: binary.LittleEndian.Uint64(data[12:20]),
	}
	end := RecordHeaderSize + int(r.KeySize) + int(r.ValueSize)
	if len(data) < end {
		return nil, fmt.Errorf("record truncated: have %d bytes, header declares %d", len(data), end)
	}
	r.Key = data[RecordHeaderSize : RecordHeaderSize+r.KeySize]
	r.Value = data[RecordHeaderSize+r.KeySize : end]
	return r, nil
}
