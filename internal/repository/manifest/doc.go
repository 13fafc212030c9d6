// Package manifest implements persistence for the package manifest.
//
// The Manifest records which files a staged distribution contains along with
// their SHA-512 checksums, so the installer can verify a package before
// touching the install directory. The FileRepository stores and loads the
// manifest as YAML inside the distribution directory and exposes a Repository
// interface that the packager and installer services depend on.
package manifest
