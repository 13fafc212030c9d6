// Package packager assembles the cvxrs Studio distribution package.
//
// It optionally runs a release build of the GUI crate, verifies the compiled
// executable exists, stages it (renamed) into the distribution directory
// together with the workspace examples, and writes a checksum manifest the
// installer verifies before applying the package. Every failure is fatal to
// the run so a broken build never produces a misleadingly complete package.
package packager
