package pak

import (
	"cmp"
	"fmt"
	"slices"
)

// EntrySize is the fixed byte length of one file-entry record.
const EntrySize = 12

// Entry is one logical file's metadata record. ContentID is a correlation
// key into the name table, not a uniqueness guarantee. Position is expressed
// in alignment units, not bytes.
type Entry struct {
	ContentID uint32
	Position  uint32
	Size      uint32
}

// Entries reads the file-entry table and returns it sorted ascending by
// position, along with the declared special-entry count. Special entry
// records are never parsed; callers decide how to report them.
//
// The sort matters: the archive layout writes the name table last, so after
// sorting the final entry locates the name table.
func (a *Archive) Entries() ([]Entry, uint32, error) {
	c, err := a.cursorAt(a.header.EntriesOffset)
	if err != nil {
		return nil, 0, err
	}
	count, err := c.readU32()
	if err != nil {
		return nil, 0, err
	}
	special, err := c.readU32()
	if err != nil {
		return nil, 0, err
	}
	if uint64(count)*EntrySize > uint64(c.remaining()) {
		return nil, 0, fmt.Errorf("%w: entry count %d exceeds archive bounds", ErrCorruptData, count)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := c.readU32()
		if err != nil {
			return nil, 0, err
		}
		pos, err := c.readU32()
		if err != nil {
			return nil, 0, err
		}
		size, err := c.readU32()
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, Entry{ContentID: id, Position: pos, Size: size})
	}
	return sortedByPosition(entries), special, nil
}

// sortedByPosition returns a copy of entries sorted ascending by position.
// The sort is stable so entries sharing a position keep their table order.
func sortedByPosition(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return out
}

// SplitLocator removes the name-table locator, the highest-position entry of
// a position-sorted list, and returns the remaining entries with it. ok is
// false when the list is empty.
func SplitLocator(entries []Entry) (rest []Entry, locator Entry, ok bool) {
	if len(entries) == 0 {
		return entries, Entry{}, false
	}
	return entries[:len(entries)-1], entries[len(entries)-1], true
}
