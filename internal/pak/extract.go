package pak

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"

	"github.com/atom0s/depak/internal/logger"
)

// DecodedFile is the final output artifact: a resolved name and the
// reconstructed byte payload.
type DecodedFile struct {
	Name string
	Data []byte
}

// Sink receives decoded files from the extraction driver.
type Sink interface {
	Put(DecodedFile) error
}

// DirSink writes decoded files under a directory, creating parent
// directories as needed. Names that would escape the directory are rejected.
type DirSink struct {
	Dir string
}

func (s *DirSink) Put(f DecodedFile) error {
	rel := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("file name %q escapes the output directory", f.Name)
	}
	path := filepath.Join(s.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, f.Data, 0o644)
}

// Options configures an extraction run.
type Options struct {
	// NameEncoding decodes raw name-table bytes into UTF-8.
	// Nil selects Windows-1252.
	NameEncoding encoding.Encoding
}

// Stats summarises an extraction run.
type Stats struct {
	Extracted int // files emitted to the sink
	Unnamed   int // entries assigned a synthetic name
	Skipped   int // entries with no compressed chunks
	Failed    int // entries aborted by a decode or write failure
	Special   uint32
}

// SyntheticName builds the placeholder file name for the index-th entry
// whose content id has no name-table match. The index counts unresolved
// entries in processing order; it is unrelated to the content id.
func SyntheticName(index int) string {
	return fmt.Sprintf("%08X.unknown_file", index)
}

// ExtractEntry reconstructs one entry's payload: a declared decompressed
// size and chunk count, a table of compressed chunk sizes, then the packed
// chunks themselves, concatenated in order after depacking. A zero chunk
// count yields a nil payload. The declared size is returned alongside the
// data; it is informational and never enforced.
func (a *Archive) ExtractEntry(e Entry) ([]byte, uint32, error) {
	c, err := a.cursorAt(a.byteOffset(e.Position))
	if err != nil {
		return nil, 0, err
	}
	declared, err := c.readU32()
	if err != nil {
		return nil, 0, err
	}
	chunks, err := c.readU32()
	if err != nil {
		return nil, 0, err
	}
	if chunks == 0 {
		return nil, declared, nil
	}
	if uint64(chunks)*4 > uint64(c.remaining()) {
		return nil, 0, fmt.Errorf("%w: chunk count %d exceeds archive bounds", ErrCorruptData, chunks)
	}

	chunkSizes := make([]uint32, chunks)
	for i := range chunkSizes {
		chunkSizes[i], err = c.readU32()
		if err != nil {
			return nil, 0, err
		}
	}

	data := make([]byte, 0, min(int(declared), int(chunks)*DepackLimit))
	for i, size := range chunkSizes {
		packed, err := c.readN(int(size))
		if err != nil {
			return nil, 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		unpacked, err := Depack(packed, DepackLimit)
		if err != nil {
			return nil, 0, fmt.Errorf("chunk %d: %w", i, err)
		}
		data = append(data, unpacked...)
	}
	return data, declared, nil
}

// Extract runs the full pipeline: entry table, name table, then each
// remaining entry in position order through the chunk decompressor and into
// the sink.
//
// Each entry is an independent unit of work: a failure mid-entry is logged
// and counted but does not stop the run. Header and table failures abort the
// run before any file is emitted. The synthetic-name counter is threaded
// through the loop so unnamed files are numbered in processing order.
func (a *Archive) Extract(ctx context.Context, sink Sink, opts Options) (Stats, error) {
	log := logger.FromContext(ctx)
	var stats Stats

	entries, special, err := a.Entries()
	if err != nil {
		return stats, err
	}
	log.Info("entry table parsed", "entries", len(entries), "special", special)

	stats.Special = special
	if special > 0 {
		log.Warn("skipping special entries", "count", special, "reason", ErrUnsupportedFeature)
	}

	rest, locator, ok := SplitLocator(entries)
	if !ok {
		return stats, nil
	}

	names, err := a.Names(locator, opts.NameEncoding)
	if err != nil {
		return stats, err
	}
	log.Debug("name table parsed", "names", len(names))

	unnamed := 0
	for _, e := range rest {
		log.Debug("extracting entry",
			"id", fmt.Sprintf("%08X", e.ContentID),
			"position", fmt.Sprintf("%08X", e.Position),
			"size", fmt.Sprintf("%08X", e.Size))

		// Name resolution happens for every entry, before it is known
		// whether the entry produces a file. An unresolved entry consumes a
		// synthetic index even when it is later skipped or fails, keeping
		// the numbering aligned with the listing and serve views.
		name := names[e.ContentID]
		if name == "" {
			name = SyntheticName(unnamed)
			unnamed++
			stats.Unnamed++
		}

		data, declared, err := a.ExtractEntry(e)
		if err != nil {
			log.Error("entry extraction failed", "id", fmt.Sprintf("%08X", e.ContentID), "error", err)
			stats.Failed++
			continue
		}
		if data == nil {
			log.Debug("entry has no chunks", "id", fmt.Sprintf("%08X", e.ContentID))
			stats.Skipped++
			continue
		}
		if len(data) != int(declared) {
			log.Warn("decompressed size differs from declared size",
				"id", fmt.Sprintf("%08X", e.ContentID), "declared", declared, "actual", len(data))
		}

		log.Info("saving file", "name", name, "bytes", len(data))
		if err := sink.Put(DecodedFile{Name: name, Data: data}); err != nil {
			log.Error("writing file failed", "name", name, "error", err)
			stats.Failed++
			continue
		}
		stats.Extracted++
	}
	return stats, nil
}
