package pak

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// NameTable maps a content id to its file name. Duplicate ids are not
// rejected; the last record wins.
type NameTable map[uint32]string

// nameRecordHeaderSize covers the content id and name length prefix.
const nameRecordHeaderSize = 8

// Names parses the name table addressed by the locator entry. The table is a
// declared byte size, a padding word and then length-prefixed name records
// consumed until the declared size is reached. Raw name bytes are decoded
// from enc into UTF-8; nil selects Windows-1252, which covers the retail
// archives.
func (a *Archive) Names(locator Entry, enc encoding.Encoding) (NameTable, error) {
	c, err := a.cursorAt(a.byteOffset(locator.Position))
	if err != nil {
		return nil, err
	}
	tableSize, err := c.readU32()
	if err != nil {
		return nil, err
	}
	if _, err := c.readU32(); err != nil { // padding
		return nil, err
	}
	if tableSize == 0 {
		return nil, fmt.Errorf("%w: name table declares zero size", ErrCorruptData)
	}

	if enc == nil {
		enc = charmap.Windows1252
	}
	dec := enc.NewDecoder()

	names := make(NameTable)
	var consumed uint32
	for consumed < tableSize {
		id, err := c.readU32()
		if err != nil {
			return nil, err
		}
		nameLen, err := c.readU32()
		if err != nil {
			return nil, err
		}
		// Two-step read: the record prefix above, then exactly nameLen raw
		// bytes. The cursor bounds-checks the length against the mapping.
		raw, err := c.readN(int(nameLen))
		if err != nil {
			return nil, err
		}
		names[id] = decodeName(raw, dec)
		consumed += nameRecordHeaderSize + nameLen
	}
	return names, nil
}

func decodeName(raw []byte, dec *encoding.Decoder) string {
	if isASCII(raw) {
		return string(raw)
	}
	decoded, err := dec.Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
