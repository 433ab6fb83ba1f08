package pak

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed byte length of the archive header record.
const HeaderSize = 32

// Signature identifies the PAK variant. Only the little-endian Kaiko
// compressed variant is handled; the remaining values are recognised so they
// can be reported, never parsed.
type Signature uint32

const (
	SigCompressedBE      Signature = 0x4B504B62
	SigCompressedLE      Signature = 0x6C4B504B
	SigUncompressedBE    Signature = 0x624B4150
	SigUncompressedLE    Signature = 0x6C4B4150
	SigKaikoCompressedBE Signature = 0x6252414B
	SigKaikoCompressedLE Signature = 0x6C52414B
)

func (s Signature) String() string {
	b := [4]byte{byte(s), byte(s >> 8), byte(s >> 16), byte(s >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%#010x", uint32(s))
		}
	}
	return fmt.Sprintf("%q (%#010x)", string(b[:]), uint32(s))
}

// Header is the fixed-size record at the start of every PAK file.
type Header struct {
	Signature     Signature
	Valid         uint32
	AlignmentUnit uint32
	ChunkUnit     uint32
	EntriesOffset uint64
	Reserved0     uint32
	Reserved1     uint32
}

// decodeHeader decodes the header fields little-endian from the raw record.
// Field-by-field on purpose: the on-disk layout must not depend on Go struct
// packing.
func decodeHeader(b []byte) (Header, bool) {
	if len(b) < HeaderSize {
		return Header{}, false
	}
	var h Header
	h.Signature = Signature(binary.LittleEndian.Uint32(b[0:4]))
	h.Valid = binary.LittleEndian.Uint32(b[4:8])
	h.AlignmentUnit = binary.LittleEndian.Uint32(b[8:12])
	h.ChunkUnit = binary.LittleEndian.Uint32(b[12:16])
	h.EntriesOffset = binary.LittleEndian.Uint64(b[16:24])
	h.Reserved0 = binary.LittleEndian.Uint32(b[24:28])
	h.Reserved1 = binary.LittleEndian.Uint32(b[28:32])
	return h, true
}

// Supported reports whether the signature names a format this package can
// extract.
func (h *Header) Supported() bool {
	return h.Signature == SigKaikoCompressedLE
}
