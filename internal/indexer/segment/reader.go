package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/kestrel-search/searchplatform/internal/indexer/index"
)

// Reader reads back the DocumentRecord set written by Writer.
type Reader struct {
	file   *os.File
	path   string
	header SegmentHeader
}

// OpenReader opens a .spdx segment file and validates its header magic; the
// checksum is verified and the record body parsed only when Records is called.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading segment header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(headerBytes[0:4])
	if magic != MagicBytes {
		f.Close()
		return nil, fmt.Errorf("invalid segment file: bad magic bytes %x", magic)
	}
	header := SegmentHeader{
		Magic:       magic,
		Version:     binary.LittleEndian.Uint32(headerBytes[4:8]),
		RecordCount: binary.LittleEndian.Uint32(headerBytes[8:12]),
		CreatedAt:   int64(binary.LittleEndian.Uint64(headerBytes[16:24])),
		BodyOffset:  int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		BodySize:    int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
	}
	return &Reader{file: f, path: path, header: header}, nil
}

// Path returns the filesystem path this reader was opened from.
func (r *Reader) Path() string {
	return r.path
}

// Records reads, checksums, and unmarshals the full DocumentRecord body.
func (r *Reader) Records() ([]index.DocumentRecord, error) {
	body := make([]byte, r.header.BodySize)
	if _, err := r.file.ReadAt(body, r.header.BodyOffset); err != nil {
		return nil, fmt.Errorf("reading record body: %w", err)
	}
	footer := make([]byte, 4)
	if _, err := r.file.ReadAt(footer, r.header.BodyOffset+r.header.BodySize); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	wantChecksum := binary.LittleEndian.Uint32(footer)
	gotChecksum := crc32.ChecksumIEEE(body)
	if wantChecksum != gotChecksum {
		return nil, fmt.Errorf("segment checksum mismatch: got %x, want %x", gotChecksum, wantChecksum)
	}
	var records []index.DocumentRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing record body: %w", err)
	}
	return records, nil
}

// RecordCount returns the record count recorded in the segment header,
// without reading or checksumming the body.
func (r *Reader) RecordCount() uint32 {
	return r.header.RecordCount
}

func (r *Reader) Close() error {
	return r.file.Close()
}
