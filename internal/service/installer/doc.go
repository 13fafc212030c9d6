// Package installer applies a staged distribution package to an install
// directory.
//
// Every file is verified against the package manifest checksums before a
// single byte is written, running studio instances are stopped, and the
// executable is swapped via a checksum-verified replacement. A run marker
// prevents concurrent installs and lets the packager refuse to restage a
// package that is currently being applied.
package installer
