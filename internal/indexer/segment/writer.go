// Package segment persists and recovers the searchengine core's document
// set to and from disk, as .spdx files. The format is deliberately simple:
// a fixed header, a single JSON array of index.DocumentRecord, and a
// CRC32 footer over that array. It exists purely for restart recovery —
// replaying every record's AddDocument call rebuilds the in-memory engine
// exactly — and plays no part in the ranking algorithm itself.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrel-search/searchplatform/internal/indexer/index"
)

// MagicBytes identifies a valid .spdx segment file.
const (
	MagicBytes    uint32 = 0x53504458
	FormatVersion uint32 = 2
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// SegmentHeader is the 64-byte header written at the start of every segment.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	RecordCount uint32
	CreatedAt  int64
	BodyOffset int64
	BodySize   int64
}

// Writer serialises DocumentRecord slices into new .spdx segment files.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically creates a new segment file containing the given
// records. It writes to a .tmp file first and renames on success.
func (w *Writer) Write(records []index.DocumentRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("cannot write empty segment")
	}
	segmentName := fmt.Sprintf("seg_%d.spdx", time.Now().UnixNano())
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp segment file: %w", err)
	}
	defer f.Close()

	body, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshaling records: %w", err)
	}

	header := SegmentHeader{
		Magic:       MagicBytes,
		Version:     FormatVersion,
		RecordCount: uint32(len(records)),
		CreatedAt:   time.Now().Unix(),
		BodyOffset:  int64(HeaderSize),
		BodySize:    int64(len(body)),
	}
	headerBytes := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(headerBytes[0:4], header.Magic)
	binary.LittleEndian.PutUint32(headerBytes[4:8], header.Version)
	binary.LittleEndian.PutUint32(headerBytes[8:12], header.RecordCount)
	binary.LittleEndian.PutUint64(headerBytes[16:24], uint64(header.CreatedAt))
	binary.LittleEndian.PutUint64(headerBytes[24:32], uint64(header.BodyOffset))
	binary.LittleEndian.PutUint64(headerBytes[32:40], uint64(header.BodySize))

	if _, err := f.Write(headerBytes); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return "", fmt.Errorf("writing record body: %w", err)
	}

	checksum := crc32.ChecksumIEEE(body)
	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	if _, err := f.Write(footer); err != nil {
		return "", fmt.Errorf("writing footer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}
