package pak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// Fixture helpers shared by the package tests. Archives are assembled from
// explicitly placed blocks so each test controls the exact byte layout.

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

type archiveBuilder struct {
	align uint32
	data  []byte
}

func newArchiveBuilder(align uint32) *archiveBuilder {
	return &archiveBuilder{align: align}
}

func (b *archiveBuilder) placeAt(off uint64, p []byte) {
	end := int(off) + len(p)
	if end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[off:], p)
}

// placeBlock positions p at pos expressed in alignment units.
func (b *archiveBuilder) placeBlock(pos uint32, p []byte) {
	b.placeAt(uint64(pos)*uint64(b.align), p)
}

// fileBlock encodes a compressed-entry block: declared size, chunk count,
// the chunk size table and the packed chunk streams.
func fileBlock(declared uint32, chunks ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write(u32(declared))
	buf.Write(u32(uint32(len(chunks))))
	for _, c := range chunks {
		buf.Write(u32(uint32(len(c))))
	}
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

type nameRec struct {
	id   uint32
	name []byte
}

// nameBlock encodes a name table: declared byte size, padding word, then the
// length-prefixed records.
func nameBlock(recs ...nameRec) []byte {
	var body bytes.Buffer
	for _, r := range recs {
		body.Write(u32(r.id))
		body.Write(u32(uint32(len(r.name))))
		body.Write(r.name)
	}
	var buf bytes.Buffer
	buf.Write(u32(uint32(body.Len())))
	buf.Write(u32(0))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// entryTable encodes the entry table with records in the given order.
func entryTable(special uint32, entries ...Entry) []byte {
	var buf bytes.Buffer
	buf.Write(u32(uint32(len(entries))))
	buf.Write(u32(special))
	for _, e := range entries {
		buf.Write(u32(e.ContentID))
		buf.Write(u32(e.Position))
		buf.Write(u32(e.Size))
	}
	return buf.Bytes()
}

// finish writes the header at offset zero and returns the archive bytes.
func (b *archiveBuilder) finish(sig Signature, valid uint32, entriesOffset uint64) []byte {
	var hdr bytes.Buffer
	hdr.Write(u32(uint32(sig)))
	hdr.Write(u32(valid))
	hdr.Write(u32(b.align))
	hdr.Write(u32(256))
	hdr.Write(u64(entriesOffset))
	hdr.Write(u32(0))
	hdr.Write(u32(0))
	b.placeAt(0, hdr.Bytes())
	return b.data
}

// packLiterals encodes payload as an aPLib stream of raw literals with a
// trailing end marker. The first byte is stored unencoded; every other byte
// costs one tag bit.
func packLiterals(payload []byte) []byte {
	if len(payload) == 0 {
		panic("packLiterals: empty payload")
	}
	out := []byte{payload[0]}
	tagIdx := -1
	tagBits := 0
	writeBit := func(bit byte) {
		if tagBits == 0 {
			out = append(out, 0)
			tagIdx = len(out) - 1
			tagBits = 8
		}
		out[tagIdx] |= bit << (tagBits - 1)
		tagBits--
	}
	for _, b := range payload[1:] {
		writeBit(0)
		out = append(out, b)
	}
	writeBit(1)
	writeBit(1)
	writeBit(0)
	out = append(out, 0x00)
	return out
}

func openTestArchive(t *testing.T, data []byte) *Archive {
	t.Helper()
	a, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// buildSimpleArchive lays out one extractable file and a name table, with
// the entry table written in reverse position order so parsing must sort.
//
//	byte 64  (pos 4): "abc" compressed, content id 0xAAAA
//	byte 128 (pos 8): name table
//	byte 192: entry table
func buildSimpleArchive(names ...nameRec) []byte {
	b := newArchiveBuilder(16)
	b.placeBlock(4, fileBlock(3, packLiterals([]byte("abc"))))
	b.placeBlock(8, nameBlock(names...))
	b.placeAt(192, entryTable(0,
		Entry{ContentID: 0xBBBB, Position: 8, Size: 0},
		Entry{ContentID: 0xAAAA, Position: 4, Size: 3},
	))
	return b.finish(SigKaikoCompressedLE, 1, 192)
}

func TestOpenReaderAt(t *testing.T) {
	t.Parallel()

	data := buildSimpleArchive(nameRec{id: 0xAAAA, name: []byte("a.txt")})
	a := openTestArchive(t, data)

	hdr := a.Header()
	if hdr.Signature != SigKaikoCompressedLE {
		t.Fatalf("signature mismatch: got %#x", uint32(hdr.Signature))
	}
	if hdr.AlignmentUnit != 16 {
		t.Fatalf("alignment mismatch: got %d want 16", hdr.AlignmentUnit)
	}
	if hdr.ChunkUnit != 256 {
		t.Fatalf("chunk unit mismatch: got %d want 256", hdr.ChunkUnit)
	}
	if hdr.EntriesOffset != 192 {
		t.Fatalf("entries offset mismatch: got %d want 192", hdr.EntriesOffset)
	}
	if a.Size() != len(data) {
		t.Fatalf("size mismatch: got %d want %d", a.Size(), len(data))
	}
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	t.Parallel()

	short := make([]byte, HeaderSize-1)
	_, err := OpenReaderAt(bytes.NewReader(short), int64(len(short)))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}

func TestOpenRejectsUnknownSignature(t *testing.T) {
	t.Parallel()

	for _, sig := range []Signature{
		SigCompressedBE,
		SigCompressedLE,
		SigUncompressedBE,
		SigUncompressedLE,
		SigKaikoCompressedBE,
		Signature(0xDEADBEEF),
	} {
		b := newArchiveBuilder(16)
		data := b.finish(sig, 1, HeaderSize)
		_, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("signature %#x: got %v, want ErrUnsupportedFormat", uint32(sig), err)
		}
	}
}

func TestOpenRejectsInvalidFlag(t *testing.T) {
	t.Parallel()

	b := newArchiveBuilder(16)
	data := b.finish(SigKaikoCompressedLE, 0, HeaderSize)
	_, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrNotValid) {
		t.Fatalf("got %v, want ErrNotValid", err)
	}
}

func TestOpenRejectsEntriesOffsetPastEnd(t *testing.T) {
	t.Parallel()

	b := newArchiveBuilder(16)
	data := b.finish(SigKaikoCompressedLE, 1, 1<<20)
	_, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrCorruptData) {
		t.Fatalf("got %v, want ErrCorruptData", err)
	}
}
