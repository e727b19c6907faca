package importer

import "errors"

var (
	// ErrMissingArchive means the archive argument does not resolve to an
	// existing regular file. Nothing has been created when it is returned.
	ErrMissingArchive = errors.New("archive not found")

	// ErrExtractionFailed means the archive could not be unpacked, or the
	// expected extraction root was absent after unpacking.
	ErrExtractionFailed = errors.New("archive extraction failed")

	// ErrImportEntryFailed means a specific mapping-table entry could not be
	// copied. Entries after the failing one are not attempted.
	ErrImportEntryFailed = errors.New("import entry failed")
)
