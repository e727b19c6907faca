// Package manifest defines the import mapping table: the ordered list of
// (source, destination) path pairs that decides which files of the upstream
// bundle are vendored into the working tree. Tables are written in HCL; a
// default table for the Bootstrap Sass release ships embedded in the binary.
package manifest
