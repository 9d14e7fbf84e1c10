package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/taskvault/taskvault/pkg/codec"
)

// maxFieldSize bounds the key and value sizes a record header may
// declare. Anything larger is treated as corruption rather than
// allocated.
const maxFieldSize = 1 << 30

// LogReader reads records from a log file, either sequentially with
// ReadNext or randomly with ReadAt. A single file handle serves both;
// random reads use pread and do not disturb the sequential position.
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *codec.RecordCodec
	offset int64
	config LogReaderConfig
}

// NewLogReader opens the log file for reading.
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  codec.NewRecordCodec(),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the record at the current sequential position. Returns
// io.EOF at a clean end of file and ErrCorruption when the tail is
// truncated mid-record or the checksum does not validate.
func (r *LogReader) ReadNext() (*codec.Record, error) {
	header := make([]byte, codec.RecordHeaderSize)
	n, err := io.ReadFull(r.reader, header)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, ErrCorruption
		}
		return nil, err
	}
	r.offset += int64(n)

	keySize := binary.LittleEndian.Uint32(header[4:8])
	valueSize := binary.LittleEndian.Uint32(header[8:12])
	if keySize > maxFieldSize || valueSize > maxFieldSize {
		return nil, ErrCorruption
	}

	data := make([]byte, codec.RecordHeaderSize+int(keySize)+int(valueSize))
	copy(data, header)
	if keySize+valueSize > 0 {
		n, err = io.ReadFull(r.reader, data[codec.RecordHeaderSize:])
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, ErrCorruption
			}
			return nil, err
		}
		r.offset += int64(n)
	}

	record, err := r.codec.Decode(data)
	if err != nil {
		return nil, ErrCorruption
	}
	if err := record.Validate(); err != nil {
		return nil, ErrCorruption
	}
	return record, nil
}

// ReadAt reads and validates the record starting at offset.
func (r *LogReader) ReadAt(offset int64) (*codec.Record, error) {
	header := make([]byte, codec.RecordHeaderSize)
	if _, err := r.file.ReadAt(header, offset); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrCorruption
		}
		return nil, err
	}

	keySize := binary.LittleEndian.Uint32(header[4:8])
	valueSize := binary.LittleEndian.Uint32(header[8:12])
	if keySize > maxFieldSize || valueSize > maxFieldSize {
		return nil, ErrCorruption
	}

	data := make([]byte, codec.RecordHeaderSize+int(keySize)+int(valueSize))
	copy(data, header)
	if keySize+valueSize > 0 {
		if _, err := r.file.ReadAt(data[codec.RecordHeaderSize:], offset+codec.RecordHeaderSize); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, ErrCorruption
			}
			return nil, err
		}
	}

	record, err := r.codec.Decode(data)
	if err != nil {
		return nil, ErrCorruption
	}
	if err := record.Validate(); err != nil {
		return nil, ErrCorruption
	}
	return record, nil
}

// Seek repositions the sequential reader.
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.reader.Reset(r.file)
	r.offset = offset
	return nil
}

// Offset returns the current sequential read offset.
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Close closes the log reader.
func (r *LogReader) Close() error {
	return r.file.Close()
}
