// Package pak implements the on-disk PAK archive container used by the
// Kingdoms of Amalur: Re-Reckoning data files.
//
// A PAK file is a fixed header, a file-entry table, a chunked aPLib-compressed
// payload region and a trailing name table that maps content ids to file
// names. The package describes structure and data only; extraction policy
// lives in the caller.
package pak

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Archive is an opened PAK file. The backing bytes are either a read-only
// memory mapping or a heap copy, depending on platform support.
type Archive struct {
	data    []byte
	header  Header
	mmapped bool
}

// Open maps a PAK file read-only, decodes its header and verifies that the
// signature names a supported format. If mmap is unavailable, it falls back
// to ReadAt-based loading. The returned archive must be closed to release
// any mapping.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 {
		return nil, ErrTruncated
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, fmt.Errorf("%w: file too large to map", ErrCorruptData)
	}
	size := int(size64)
	if size < HeaderSize {
		return nil, ErrTruncated
	}

	// Prefer mmap where available so entry payloads are zero-copy slices.
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		a, parseErr := parseArchiveData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return a, nil
	}

	// Fallback path that does not require mmap support.
	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseArchiveData(data, false)
}

// OpenReaderAt loads and validates a PAK from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*Archive, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrTruncated
	}
	if size < HeaderSize {
		return nil, ErrTruncated
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseArchiveData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseArchiveData(data []byte, mmapped bool) (*Archive, error) {
	if len(data) < HeaderSize {
		return nil, ErrTruncated
	}
	hdr, ok := decodeHeader(data[:HeaderSize])
	if !ok {
		return nil, ErrTruncated
	}
	if !hdr.Supported() {
		return nil, fmt.Errorf("%w: signature %s", ErrUnsupportedFormat, hdr.Signature)
	}
	if hdr.Valid == 0 {
		return nil, ErrNotValid
	}
	if hdr.EntriesOffset > uint64(len(data)) {
		return nil, fmt.Errorf("%w: entry table offset %#x past end of file", ErrCorruptData, hdr.EntriesOffset)
	}
	return &Archive{
		data:    data,
		header:  hdr,
		mmapped: mmapped,
	}, nil
}

// Close releases the archive bytes and any mmap backing.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	var err error
	if a.data != nil && a.mmapped {
		err = unix.Munmap(a.data)
	}
	a.data = nil
	a.mmapped = false
	return err
}

// Header returns the decoded archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Size returns the total archive size in bytes.
func (a *Archive) Size() int {
	return len(a.data)
}

// cursorAt positions a read cursor at the given absolute byte offset.
func (a *Archive) cursorAt(off uint64) (*cursor, error) {
	return newCursor(a.data, off)
}

// byteOffset scales a stored position into an absolute byte offset using the
// header's alignment unit.
func (a *Archive) byteOffset(position uint32) uint64 {
	return uint64(position) * uint64(a.header.AlignmentUnit)
}
