package pak

import "errors"

var (
	// ErrTruncated means the stream is too small to hold the header record.
	ErrTruncated = errors.New("pak: file too small for PAK header")
	// ErrNotValid means the header's validity flag is cleared.
	ErrNotValid = errors.New("pak: archive is flagged as not valid")
	// ErrUnsupportedFormat means the signature names a known or unknown
	// variant this package does not handle.
	ErrUnsupportedFormat = errors.New("pak: unsupported PAK format")
	// ErrUnsupportedFeature means the archive declares special entries.
	ErrUnsupportedFeature = errors.New("pak: special entries are not supported")
	// ErrCorruptData means a structural field contradicts the archive bytes.
	ErrCorruptData = errors.New("pak: corrupt archive data")
)
