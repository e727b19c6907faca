// Package importer implements the vendoring run: validate the archive
// reference, extract the bundle into a scoped temporary workspace, copy each
// mapping-table entry into the working tree in order, and always discard the
// workspace afterwards.
package importer
