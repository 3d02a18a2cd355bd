package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/guamoko995/roboarm/wire"
)

// StoragePartitionOffset and StoragePartitionSize bound the flash range
// the KVStore is allowed to touch, matching the firmware's reserved
// configuration partition.
const (
	StoragePartitionOffset uint32 = 0x2A0000
	StoragePartitionSize   uint32 = 0x20000
)

// maxValueSize bounds the length of a stored value, matching the largest
// request body the wire codec accepts.
const maxValueSize = wire.MaxReadBodySize

// KVStore is a log-structured, single-byte-keyed key-value store over a
// FlashDevice. Records are appended sequentially; a KVStore compacts by
// erasing and rewriting only the latest value per key once the partition
// fills up. A power loss during an append only loses the in-flight record:
// its checksum fails and Open stops the scan before it. A power loss
// during compaction, which erases the whole partition before rewriting,
// loses every value not yet rewritten.
type KVStore struct {
	dev         FlashDevice
	start, end  uint32
	writeOffset uint32
	latest      map[Key][]byte
}

// Open scans [start, start+size) on dev for the most recent value of
// each key and returns a ready-to-use KVStore. start and size must be
// aligned to dev's erase block size.
func Open(dev FlashDevice, start, size uint32) (*KVStore, error) {
	if start%dev.EraseBlockSize() != 0 || size%dev.EraseBlockSize() != 0 {
		return nil, fmt.Errorf("storage: partition must be erase-block aligned")
	}
	s := &KVStore{
		dev:    dev,
		start:  start,
		end:    start + size,
		latest: make(map[Key][]byte),
	}
	if err := s.scan(); err != nil {
		return nil, err
	}
	return s, nil
}

// scan replays the log from s.start, populating s.latest and advancing
// s.writeOffset past the last valid record.
func (s *KVStore) scan() error {
	offset := s.start
	for offset+6 <= s.end {
		var header [6]byte
		if err := s.dev.ReadAt(header[:], offset); err != nil {
			return fmt.Errorf("storage: scan read header: %w", err)
		}
		key := Key(header[0])
		length := binary.LittleEndian.Uint32(header[1:5])
		flags := header[5]
		if flags != recordMagic || length > maxValueSize || offset+6+length+4 > s.end {
			break // unwritten flash (erased == 0xFF) or corrupt tail record
		}
		payload := make([]byte, length)
		if err := s.dev.ReadAt(payload, offset+6); err != nil {
			return fmt.Errorf("storage: scan read payload: %w", err)
		}
		var crcBuf [4]byte
		if err := s.dev.ReadAt(crcBuf[:], offset+6+length); err != nil {
			return fmt.Errorf("storage: scan read crc: %w", err)
		}
		wantCRC := binary.LittleEndian.Uint32(crcBuf[:])
		if crc32.ChecksumIEEE(payload) != wantCRC {
			break // torn write from a power loss mid-record
		}
		s.latest[key] = payload
		offset += 6 + length + 4
	}
	s.writeOffset = offset
	return nil
}

const recordMagic = 0xA5

// Put appends value under key, compacting the partition
// first if there isn't room.
func (s *KVStore) Put(key Key, value []byte) error {
	if len(value) > maxValueSize {
		return fmt.Errorf("storage: value for key %d exceeds %d bytes", key, maxValueSize)
	}
	recordSize := uint32(6 + len(value) + 4)
	if s.writeOffset+recordSize > s.end {
		if err := s.compact(); err != nil {
			return err
		}
		if s.writeOffset+recordSize > s.end {
			return fmt.Errorf("storage: value for key %d does not fit after compaction", key)
		}
	}

	var header [6]byte
	header[0] = byte(key)
	binary.LittleEndian.PutUint32(header[1:5], uint32(len(value)))
	header[5] = recordMagic
	if err := s.dev.WriteAt(header[:], s.writeOffset); err != nil {
		return fmt.Errorf("storage: write header: %w", err)
	}
	if len(value) > 0 {
		if err := s.dev.WriteAt(value, s.writeOffset+6); err != nil {
			return fmt.Errorf("storage: write payload: %w", err)
		}
	}
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc32.ChecksumIEEE(value))
	if err := s.dev.WriteAt(crcBuf[:], s.writeOffset+6+uint32(len(value))); err != nil {
		return fmt.Errorf("storage: write crc: %w", err)
	}

	s.writeOffset += recordSize
	cp := make([]byte, len(value))
	copy(cp, value)
	s.latest[key] = cp
	return nil
}

// Fetch returns the most recently stored value for key, or ErrNotFound.
func (s *KVStore) Fetch(key Key) ([]byte, error) {
	v, ok := s.latest[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// compact erases the whole partition and rewrites only the latest value
// of each known key, reclaiming space from superseded records.
func (s *KVStore) compact() error {
	if err := s.dev.EraseRange(s.start, s.end); err != nil {
		return fmt.Errorf("storage: compact erase: %w", err)
	}
	s.writeOffset = s.start
	saved := s.latest
	s.latest = make(map[Key][]byte)
	for key, value := range saved {
		if err := s.Put(key, value); err != nil {
			return fmt.Errorf("storage: compact rewrite key %d: %w", key, err)
		}
	}
	return nil
}
