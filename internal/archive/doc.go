// Package archive handles the upstream bundle archive: deriving the expected
// extraction root name from the archive file name, and unpacking a gzipped
// tar stream into a directory without letting any entry escape it.
package archive
