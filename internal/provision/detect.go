// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io/fs"
	"os"
)

const (
	// podmanMarkerPath is written by podman/crun into every container it starts.
	podmanMarkerPath = "/run/.containerenv"
	// dockerMarkerPath is the equivalent marker for docker containers.
	dockerMarkerPath = "/.dockerenv"

	// CellNameEnvVar carries the container name into re-invoked runs so the
	// inner process knows which cell it is provisioning.
	CellNameEnvVar = "DEVCELL_NAME"
)

type (
	// StatFunc is the function signature for checking marker-file existence.
	// This allows injection of fake filesystems for testing.
	StatFunc func(name string) (fs.FileInfo, error)

	// GetenvFunc is the function signature for reading environment variables.
	GetenvFunc func(key string) string

	// Detector determines the execution context of the current process.
	// The zero value is not usable; construct via NewDetector.
	Detector struct {
		markerPaths []string
		stat        StatFunc
		getenv      GetenvFunc
	}

	// DetectorOption configures a Detector.
	DetectorOption func(*Detector)

	// ExecutionContext is the context flag captured once at the start of a run
	// and immutable for its duration.
	ExecutionContext struct {
		// Inside is true when a container marker file exists.
		Inside bool
		// CellName is the container name announced via CellNameEnvVar on
		// re-invocation. Empty for direct in-container runs (e.g. a user
		// running devcell from a toolbox shell).
		CellName string
	}
)

// WithMarkerPaths overrides the marker files checked for container detection.
func WithMarkerPaths(paths ...string) DetectorOption {
	return func(d *Detector) {
		d.markerPaths = paths
	}
}

// WithStat sets a custom stat function for testing.
func WithStat(fn StatFunc) DetectorOption {
	return func(d *Detector) {
		d.stat = fn
	}
}

// WithGetenv sets a custom environment lookup function for testing.
func WithGetenv(fn GetenvFunc) DetectorOption {
	return func(d *Detector) {
		d.getenv = fn
	}
}

// NewDetector creates a Detector backed by the real filesystem and environment.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		markerPaths: []string{podmanMarkerPath, dockerMarkerPath},
		stat:        os.Stat,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect checks for the container marker files and captures the execution
// context. Absence of a marker is a valid, expected outcome, never an error.
func (d *Detector) Detect() ExecutionContext {
	for _, path := range d.markerPaths {
		if _, err := d.stat(path); err == nil {
			return ExecutionContext{
				Inside:   true,
				CellName: d.getenv(CellNameEnvVar),
			}
		}
	}
	return ExecutionContext{}
}
