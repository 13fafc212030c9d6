// Package workspace derives the filesystem layout of a packaging run from the
// cargo workspace root: build output location, distribution directory, and the
// source/destination paths of the staged artifacts.
package workspace
